package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/client/api"
	"github.com/nkiryanov/sharefin/internal/client/cache"
	"github.com/nkiryanov/sharefin/internal/client/provider"
	"github.com/nkiryanov/sharefin/internal/client/session"
	"github.com/nkiryanov/sharefin/internal/models"
)

// Transactions shown on dashboard
const recentTransactions = 5

type cli struct {
	api      *api.Client
	cache    *cache.Store
	provider *provider.Provider
	session  *session.Store
	in       *bufio.Reader
	out      io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"register":      {"register [--name NAME] [-p PASSWORD] <login>", cmdRegister},
	"login":         {"login [-p PASSWORD] <login>", cmdLogin},
	"logout":        {"logout", cmdLogout},
	"whoami":        {"whoami", cmdWhoami},
	"name":          {"name <display name>", cmdName},
	"profile":       {"profile [--full-name NAME] [--avatar-url URL]", cmdProfile},
	"dashboard":     {"dashboard", cmdDashboard},
	"deposit":       {"deposit <amount>", cmdRequest(models.TransactionTypeDeposit)},
	"withdraw":      {"withdraw <amount>", cmdRequest(models.TransactionTypeWithdraw)},
	"history":       {"history", cmdHistory},
	"admin-list":    {"admin-list", cmdAdminList},
	"approve":       {"approve <transaction id>", cmdApprove},
	"ticket":        {"ticket --subject SUBJECT [--description TEXT] [--priority low|medium|high]", cmdTicket},
	"tickets":       {"tickets", cmdTickets},
	"notifications": {"notifications", cmdNotifications},
	"read":          {"read <notification id>", cmdRead},
}

func printUsage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(out, "Usage: sharefinctl [-a URL] [--state FILE] [-l LEVEL] <command> [args]")
	fmt.Fprintln(out, "Commands:")
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
}

func cmdRegister(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	name := fs.String("name", "", "Full name")
	password := fs.StringP("password", "p", "", "Password (read from stdin if empty)")
	login, err := parseOne(fs, args, "login")
	if err != nil {
		return err
	}

	pwd, err := c.password(*password)
	if err != nil {
		return err
	}

	s, err := c.provider.SignUp(ctx, login, pwd, *name)
	if err != nil {
		return err
	}
	if _, err := c.session.WaitSettled(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Registered and signed in as %s\n", s.User.Username)
	return nil
}

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	password := fs.StringP("password", "p", "", "Password (read from stdin if empty)")
	login, err := parseOne(fs, args, "login")
	if err != nil {
		return err
	}

	pwd, err := c.password(*password)
	if err != nil {
		return err
	}

	s, err := c.provider.SignIn(ctx, login, pwd)
	if err != nil {
		return err
	}
	if _, err := c.session.WaitSettled(ctx); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Signed in as %s\n", s.User.Username)
	return nil
}

func cmdLogout(ctx context.Context, c *cli, _ []string) error {
	if err := c.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

func cmdWhoami(_ context.Context, c *cli, _ []string) error {
	st, err := c.authenticated()
	if err != nil {
		return err
	}

	role := "user"
	if st.User.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(c.out, "%s (%s) %s\n", st.User.Username, role, st.User.ID)
	return nil
}

// Remember display name locally, it is never sent to the server
func cmdName(_ context.Context, c *cli, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return errors.New("display name required")
	}

	err := c.cache.Update(func(st *cache.State) {
		st.DisplayName = name
		st.WelcomePromptCompleted = true
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Hello, %s!\n", name)
	return nil
}

// Change profile on the server, only passed flags are sent
func cmdProfile(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("profile", pflag.ContinueOnError)
	fullName := fs.String("full-name", "", "Full name")
	avatarURL := fs.String("avatar-url", "", "Avatar URL (empty value clears it)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var u api.ProfileUpdate
	if fs.Changed("full-name") {
		u.FullName = fullName
	}
	if fs.Changed("avatar-url") {
		u.AvatarURL = avatarURL
	}
	if u.FullName == nil && u.AvatarURL == nil {
		return errors.New("nothing to update, pass --full-name or --avatar-url")
	}

	p, err := c.provider.UpdateUser(ctx, u)
	if err != nil {
		return err
	}
	if _, err := c.session.WaitSettled(ctx); err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Profile updated")
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Full name\t%s\n", p.FullName)
	fmt.Fprintf(w, "Avatar\t%s\n", p.AvatarURL)
	return w.Flush()
}

func cmdDashboard(_ context.Context, c *cli, _ []string) error {
	st, err := c.authenticated()
	if err != nil {
		return err
	}
	local := c.cache.Load()

	fmt.Fprintf(c.out, "Welcome back, %s\n", greeting(local, st))
	if !local.WelcomePromptCompleted {
		fmt.Fprintln(c.out, "Tip: set how we greet you with 'sharefinctl name <display name>'")
	}
	fmt.Fprintln(c.out)

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Balance\t%s\n", st.Profile.Balance.StringFixed(2))
	fmt.Fprintf(w, "Total deposits\t%s\n", st.Profile.TotalDeposits.StringFixed(2))
	fmt.Fprintf(w, "Total withdrawals\t%s\n", st.Profile.TotalWithdrawals.StringFixed(2))
	fmt.Fprintf(w, "Total earnings\t%s\n", st.Profile.TotalEarnings.StringFixed(2))
	fmt.Fprintf(w, "KYC\t%s\n", st.Profile.KYCStatus)
	if st.User.IsAdmin {
		fmt.Fprintf(w, "Pending approvals\t%d\n", countPending(st.AllTransactions))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(c.out)
	recent := st.Transactions[:min(len(st.Transactions), recentTransactions)]
	return printTransactions(c.out, recent, false)
}

func cmdRequest(txType string) func(ctx context.Context, c *cli, args []string) error {
	return func(ctx context.Context, c *cli, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("%s amount required", txType)
		}
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid amount %q", apperrors.ErrValidation, args[0])
		}

		t, err := c.session.SubmitTransactionRequest(ctx, amount, txType)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.out, "Requested %s of %s, waiting for approval (id %s)\n", t.Type, t.Amount.StringFixed(2), t.ID)
		return nil
	}
}

func cmdHistory(_ context.Context, c *cli, _ []string) error {
	st, err := c.authenticated()
	if err != nil {
		return err
	}
	return printTransactions(c.out, st.Transactions, false)
}

func cmdAdminList(_ context.Context, c *cli, _ []string) error {
	st, err := c.authenticated()
	if err != nil {
		return err
	}
	if !st.User.IsAdmin {
		return apperrors.ErrActionForbidden
	}
	return printTransactions(c.out, st.AllTransactions, true)
}

func cmdApprove(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errors.New("transaction id required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid transaction id %q", apperrors.ErrValidation, args[0])
	}

	access, err := c.access(ctx)
	if err != nil {
		return err
	}

	t, err := c.api.Approve(ctx, access, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Approved %s of %s (id %s)\n", t.Type, t.Amount.StringFixed(2), t.ID)
	return nil
}

func cmdTicket(ctx context.Context, c *cli, args []string) error {
	fs := pflag.NewFlagSet("ticket", pflag.ContinueOnError)
	subject := fs.String("subject", "", "Ticket subject")
	description := fs.String("description", "", "Ticket description")
	priority := fs.String("priority", "", "Priority (low, medium, high)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	access, err := c.access(ctx)
	if err != nil {
		return err
	}

	t, err := c.api.CreateTicket(ctx, access, *subject, *description, *priority)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Ticket created (id %s, priority %s)\n", t.ID, t.Priority)
	return nil
}

func cmdTickets(ctx context.Context, c *cli, _ []string) error {
	access, err := c.access(ctx)
	if err != nil {
		return err
	}

	tickets, err := c.api.ListTickets(ctx, access)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tPRIORITY\tSUBJECT")
	for _, t := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.CreatedAt.Local().Format(time.DateTime), t.Status, t.Priority, t.Subject)
	}
	return w.Flush()
}

func cmdNotifications(ctx context.Context, c *cli, _ []string) error {
	access, err := c.access(ctx)
	if err != nil {
		return err
	}

	notifications, err := c.api.ListNotifications(ctx, access)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tREAD\tMESSAGE")
	for _, n := range notifications {
		mark := "no"
		if n.Read {
			mark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s: %s\n", n.ID, n.CreatedAt.Local().Format(time.DateTime), mark, n.Title, n.Message)
	}
	return w.Flush()
}

func cmdRead(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errors.New("notification id required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid notification id %q", apperrors.ErrValidation, args[0])
	}

	access, err := c.access(ctx)
	if err != nil {
		return err
	}

	if _, err := c.api.MarkNotificationRead(ctx, access, id); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Marked as read")
	return nil
}

// Settled authenticated state or error
func (c *cli) authenticated() (session.State, error) {
	st := c.session.Snapshot()
	switch {
	case st.Err != nil:
		return st, st.Err
	case st.Status != session.StatusAuthenticated:
		return st, apperrors.ErrSessionMissing
	default:
		return st, nil
	}
}

// Fresh access token of the current session
func (c *cli) access(ctx context.Context) (string, error) {
	s, err := c.provider.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", apperrors.ErrSessionMissing
	}
	return s.AccessToken, nil
}

func (c *cli) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	fmt.Fprint(c.out, "Password: ")
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	fmt.Fprintln(c.out)

	pwd := strings.TrimRight(line, "\r\n")
	if pwd == "" {
		return "", apperrors.ErrPasswordEmpty
	}
	return pwd, nil
}

func parseOne(fs *pflag.FlagSet, args []string, name string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s required", name)
	}
	return fs.Arg(0), nil
}

// Local display name wins over profile name
func greeting(local cache.State, st session.State) string {
	switch {
	case local.DisplayName != "":
		return local.DisplayName
	case st.Profile.FullName != "":
		return st.Profile.FullName
	default:
		return st.User.Username
	}
}

func countPending(ts []api.Transaction) int {
	n := 0
	for _, t := range ts {
		if t.Status == models.TransactionStatusPending {
			n++
		}
	}
	return n
}

func printTransactions(out io.Writer, ts []api.Transaction, withOwner bool) error {
	if len(ts) == 0 {
		fmt.Fprintln(out, "No transactions yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "ID\tCREATED\tTYPE\tAMOUNT\tSTATUS"
	if withOwner {
		header += "\tOWNER"
	}
	fmt.Fprintln(w, header)

	for _, t := range ts {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", t.ID, t.CreatedAt.Local().Format(time.DateTime), t.Type, t.Amount.StringFixed(2), t.Status)
		if withOwner {
			line += "\t" + t.UserName
		}
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}
