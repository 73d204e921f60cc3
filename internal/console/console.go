// Package console is the interactive admin terminal for the labor-cost
// board. It renders the daily ledger, the monthly report, the employee
// roster and the admin log, and funnels every mutation through the
// save-then-reload model the state packages implement.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"flboard/internal/api"
	"flboard/internal/auditlog"
	"flboard/internal/core"
	"flboard/internal/ledger"
	"flboard/internal/log"
	"flboard/internal/monthly"
	"flboard/internal/roster"
	"flboard/internal/session"
)

type Console struct {
	gate    *session.Gate
	ledger  *ledger.DailyLedger
	monthly *monthly.Aggregator
	roster  *roster.Manager
	logs    *auditlog.Pager
	logger  *log.Logger

	in  *bufio.Scanner
	out io.Writer
}

// New wires every state component onto one backend. logPerPage sets the
// admin-log page size; zero means the default.
func New(backend api.Backend, sess *session.Session, logger *log.Logger, logPerPage int, in io.Reader, out io.Writer) *Console {
	return &Console{
		gate:    session.NewGate(backend, sess),
		ledger:  ledger.New(backend),
		monthly: monthly.New(backend),
		roster:  roster.New(backend),
		logs:    auditlog.New(backend, logPerPage),
		logger:  logger.WithComponent(log.ComponentConsole),
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run reads commands until EOF, quit, or context cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "flboard console. Type 'help' for commands.")
	for {
		fmt.Fprint(c.out, c.prompt())
		if !c.in.Scan() {
			return c.in.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			if c.ledger.Dirty() {
				fmt.Fprintln(c.out, "unsaved changes; 'save' or 'discard' first, or 'quit!' to drop them")
				continue
			}
			return nil
		}
		if cmd == "quit!" {
			return nil
		}
		if err := c.dispatch(ctx, cmd, args, line); err != nil {
			if errors.Is(err, session.ErrLoggedOut) {
				fmt.Fprintln(c.out, "logged out; use 'login <email> <password>'")
				continue
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *Console) prompt() string {
	p := "flboard"
	if c.ledger.State() != ledger.StateIdle {
		p += " " + c.ledger.Date().String()
	}
	if c.ledger.Dirty() {
		p += "*"
	}
	return p + "> "
}

func (c *Console) dispatch(ctx context.Context, cmd string, args []string, line string) error {
	switch cmd {
	case "help":
		c.printHelp()
		return nil
	case "login":
		return c.cmdLogin(ctx, args)
	case "logout":
		c.logger.Info("Logging out")
		return c.gate.Logout()
	case "whoami":
		user, err := c.gate.Verify(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s <%s> role=%s\n", user.Name, user.Email, user.Role)
		return nil

	case "open":
		return c.cmdOpen(ctx, args)
	case "prev", "next":
		return c.cmdShiftDay(ctx, cmd)
	case "show":
		return c.renderDay()
	case "save":
		if err := c.ledger.Save(ctx); err != nil {
			return err
		}
		c.logger.Info("Day saved", log.FieldDate, c.ledger.Date().String())
		fmt.Fprintln(c.out, "saved")
		return c.renderDay()
	case "discard", "refresh":
		if err := c.ledger.Refresh(ctx); err != nil {
			return err
		}
		return c.renderDay()

	case "sales":
		return c.ledger.SetSales(strings.Join(args, ""))
	case "note":
		return c.ledger.SetSalesNote(strings.TrimSpace(strings.TrimPrefix(line, "note")))
	case "staff":
		n, err := atoiArg(args, 0, "staff <count>")
		if err != nil {
			return err
		}
		return c.ledger.SetEmployeeCount(n)

	case "add":
		if len(args) < 1 {
			return errors.New("usage: add <meat|ingredient|drink|other>")
		}
		return c.ledger.AddItem(core.FoodCategory(args[0]))
	case "rm":
		i, err := atoiArg(args, 0, "rm <line>")
		if err != nil {
			return err
		}
		return c.ledger.RemoveItem(i - 1)
	case "cat":
		i, err := atoiArg(args, 0, "cat <line> <category>")
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: cat <line> <category>")
		}
		return c.ledger.SetItemCategory(i-1, core.FoodCategory(args[1]))
	case "amount":
		i, err := atoiArg(args, 0, "amount <line> <yen>")
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: amount <line> <yen>")
		}
		return c.ledger.SetItemAmount(i-1, strings.Join(args[1:], ""))
	case "inote":
		i, err := atoiArg(args, 0, "inote <line> <text>")
		if err != nil {
			return err
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "inote"))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		return c.ledger.SetItemNote(i-1, rest)

	case "month":
		return c.cmdMonth(ctx, args)
	case "mprev":
		return c.monthNav(ctx, c.monthly.LoadPrev)
	case "mnext":
		return c.monthNav(ctx, c.monthly.LoadNext)
	case "myprev":
		return c.monthNav(ctx, c.monthly.LoadPrevYear)
	case "mynext":
		return c.monthNav(ctx, c.monthly.LoadNextYear)

	case "users", "pending":
		if err := c.requireAdmin(ctx); err != nil {
			return err
		}
		if err := c.roster.Load(ctx); err != nil {
			return err
		}
		return c.renderUsers(cmd == "pending")
	case "approve":
		return c.cmdApprove(ctx, args)
	case "setuser":
		return c.cmdSetUser(ctx, args)
	case "deluser":
		if err := c.requireAdmin(ctx); err != nil {
			return err
		}
		id, err := atoi64Arg(args, 0, "deluser <id>")
		if err != nil {
			return err
		}
		c.logger.Info("Deleting user", log.FieldUserID, id)
		return c.roster.Delete(ctx, id)

	case "logs":
		if err := c.requireAdmin(ctx); err != nil {
			return err
		}
		page := 1
		if len(args) > 0 {
			var err error
			if page, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("bad page %q", args[0])
			}
		}
		if err := c.logs.Load(ctx, page); err != nil {
			return err
		}
		return c.renderLogs()
	case "lnext":
		if err := c.logs.LoadNext(ctx); err != nil {
			return err
		}
		return c.renderLogs()
	case "lprev":
		if err := c.logs.LoadPrev(ctx); err != nil {
			return err
		}
		return c.renderLogs()

	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (c *Console) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: login <email> <password>")
	}
	if err := c.gate.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	user, err := c.gate.Verify(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("Logged in", "email", user.Email)
	fmt.Fprintf(c.out, "welcome, %s (%s)\n", user.Name, user.Role)
	return nil
}

func (c *Console) cmdOpen(ctx context.Context, args []string) error {
	if c.ledger.Dirty() {
		return errors.New("unsaved changes; 'save' or 'discard' first")
	}
	date := core.Today()
	if len(args) > 0 && args[0] != "today" {
		var err error
		if date, err = core.ParseDate(args[0]); err != nil {
			return err
		}
	}
	if err := c.ledger.Open(ctx, date); err != nil {
		return err
	}
	return c.renderDay()
}

func (c *Console) cmdShiftDay(ctx context.Context, cmd string) error {
	if c.ledger.State() == ledger.StateIdle {
		return ledger.ErrNotLoaded
	}
	if c.ledger.Dirty() {
		return errors.New("unsaved changes; 'save' or 'discard' first")
	}
	delta := 1
	if cmd == "prev" {
		delta = -1
	}
	if err := c.ledger.Open(ctx, c.ledger.Date().AddDays(delta)); err != nil {
		return err
	}
	return c.renderDay()
}

func (c *Console) cmdMonth(ctx context.Context, args []string) error {
	year, month := core.Today().Year(), core.Today().Month()
	if len(args) > 0 {
		parts := strings.SplitN(args[0], "-", 2)
		if len(parts) != 2 {
			return fmt.Errorf("usage: month [YYYY-MM]")
		}
		var err error
		if year, err = strconv.Atoi(parts[0]); err != nil {
			return fmt.Errorf("bad year %q", parts[0])
		}
		if month, err = strconv.Atoi(parts[1]); err != nil {
			return fmt.Errorf("bad month %q", parts[1])
		}
	}
	if err := c.monthly.Load(ctx, year, month); err != nil {
		return err
	}
	return c.renderMonth()
}

func (c *Console) monthNav(ctx context.Context, nav func(context.Context) error) error {
	if err := nav(ctx); err != nil {
		return err
	}
	return c.renderMonth()
}

func (c *Console) cmdApprove(ctx context.Context, args []string) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	id, err := atoi64Arg(args, 0, "approve <id> [role] [wage]")
	if err != nil {
		return err
	}
	role := core.RoleEmployee
	if len(args) > 1 {
		role = core.ParseRole(args[1])
	}
	var wage int64
	if len(args) > 2 {
		if wage, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return fmt.Errorf("bad wage %q", args[2])
		}
	}
	c.logger.Info("Approving user", log.FieldUserID, id)
	if err := c.roster.Approve(ctx, id, role, wage); err != nil {
		return err
	}
	return c.renderUsers(false)
}

func (c *Console) cmdSetUser(ctx context.Context, args []string) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	if len(args) < 3 {
		return errors.New("usage: setuser <id> <role> <wage>")
	}
	id, err := atoi64Arg(args, 0, "setuser <id> <role> <wage>")
	if err != nil {
		return err
	}
	wage, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("bad wage %q", args[2])
	}
	if err := c.roster.Update(ctx, id, core.ParseRole(args[1]), wage); err != nil {
		return err
	}
	return c.renderUsers(false)
}

// requireAdmin re-verifies the role through the backend before every admin
// surface. A role cached from login is never trusted.
func (c *Console) requireAdmin(ctx context.Context) error {
	user, err := c.gate.Verify(ctx)
	if err != nil {
		return err
	}
	if !user.Role.IsAdmin() {
		return errors.New("admin role required")
	}
	return nil
}

// rendering

func (c *Console) renderDay() error {
	if c.ledger.State() == ledger.StateIdle {
		return ledger.ErrNotLoaded
	}
	sum := c.ledger.Summary()
	amount, note := c.ledger.Sales()

	fmt.Fprintf(c.out, "== %s ==\n", c.ledger.Date())
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "sales\t%s\t%s\n", core.FormatYen(amount), note)
	fmt.Fprintf(w, "part-time wage\t%s\n", core.FormatYenValue(sum.PartTimeWage))
	fmt.Fprintf(w, "full-time staff\t%d\t(fixed %s)\n", c.ledger.EmployeeCount(), core.FormatYenValue(sum.FixedWage))
	fmt.Fprintf(w, "total wage\t%s\n", core.FormatYenValue(sum.TotalWage))
	fmt.Fprintf(w, "food costs\t%s\t(live)\n", core.FormatYenValue(c.ledger.LiveFoodTotal()))
	fmt.Fprintf(w, "L ratio\t%s\n", core.FormatRatio(sum.LRatio))
	fmt.Fprintf(w, "F ratio\t%s\n", core.FormatRatio(sum.FRatio))
	fmt.Fprintf(w, "FL ratio\t%s\n", core.FormatRatio(sum.FLRatio))
	w.Flush()

	if rows := sum.WageRows; len(rows) > 0 {
		fmt.Fprintln(c.out, "-- wages --")
		w = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "name\twork\tbreak\tnight\twage")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.UserName,
				core.FormatMinutes(r.WorkMinutes),
				core.FormatMinutes(r.BreakMinutes),
				core.FormatMinutes(r.NightMinutes),
				core.FormatYenValue(r.DailyWage))
		}
		w.Flush()
	}

	if items := c.ledger.Items(); len(items) > 0 {
		fmt.Fprintln(c.out, "-- food costs --")
		w = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for i, it := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, it.Category, core.FormatYenValue(it.AmountYen), it.Note)
		}
		w.Flush()
	}
	if c.ledger.Dirty() {
		fmt.Fprintln(c.out, "(unsaved changes)")
	}
	return nil
}

func (c *Console) renderMonth() error {
	rep, err := c.monthly.Report()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "== %d-%02d ==\n", rep.Year, rep.Month)
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "day\tsales\twage\tfood\tL\tF\tFL\tcum FL")
	for _, d := range rep.Days {
		fmt.Fprintf(w, "%02d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Date.Day(),
			core.FormatYen(d.Sales),
			core.FormatYenValue(d.Wage),
			core.FormatYen(d.FoodCosts),
			core.FormatRatio(d.LRatio),
			core.FormatRatio(d.FRatio),
			core.FormatRatio(d.FLRatio),
			core.FormatRatio(d.CumulativeFLRatio))
	}
	fmt.Fprintf(w, "total\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		core.FormatYen(rep.Sales),
		core.FormatYenValue(rep.Wage),
		core.FormatYen(rep.FoodCosts),
		core.FormatRatio(rep.LRatio),
		core.FormatRatio(rep.FRatio),
		core.FormatRatio(rep.FLRatio))
	w.Flush()
	return nil
}

func (c *Console) renderUsers(pendingOnly bool) error {
	var (
		users []core.User
		err   error
	)
	if pendingOnly {
		users, err = c.roster.Pending()
	} else {
		users, err = c.roster.Users()
	}
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(c.out, "(none)")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tname\temail\trole\twage")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, core.FormatYenValue(u.BaseHourlyWage))
	}
	w.Flush()
	return nil
}

func (c *Console) renderLogs() error {
	page, err := c.logs.Page()
	if err != nil {
		return err
	}
	total, _ := c.logs.TotalPages()
	fmt.Fprintf(c.out, "== admin log (page %d/%d, %d entries) ==\n", page.Page, total, page.TotalCount)
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, l := range page.Logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.CreatedAt.Format("2006-01-02 15:04"), l.AdminUserName, l.Action, l.Details)
	}
	w.Flush()
	return nil
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `auth:      login <email> <password> | logout | whoami
day:       open [date|today] | prev | next | show | save | discard
edit:      sales <yen> | note <text> | staff <n>
food:      add <category> | rm <line> | cat <line> <category> | amount <line> <yen> | inote <line> <text>
month:     month [YYYY-MM] | mprev | mnext | myprev | mynext
roster:    users | pending | approve <id> [role] [wage] | setuser <id> <role> <wage> | deluser <id>
admin log: logs [page] | lnext | lprev
other:     help | quit
`)
}

func atoiArg(args []string, i int, usage string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[i])
	}
	return n, nil
}

func atoi64Arg(args []string, i int, usage string) (int64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[i])
	}
	return n, nil
}
