package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashbook/internal/client"
	"cashbook/internal/model"
)

var errUsage = errors.New("usage")

// shell is a line-oriented front end over a client.Store.
type shell struct {
	store        *client.Store
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
	now          func() time.Time
}

func newShell(store *client.Store, in *bufio.Reader, out io.Writer, readPassword func() (string, error)) *shell {
	return &shell{store: store, in: in, out: out, readPassword: readPassword, now: time.Now}
}

func (s *shell) run(ctx context.Context) {
	for {
		fmt.Fprintf(s.out, "cashbook%s> ", s.status())
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			fmt.Fprintln(s.out, "Bye!")
			return
		}
		if err := s.exec(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *shell) status() string {
	if session := s.store.Snapshot(); session != nil {
		return " (" + session.Username + ")"
	}
	return ""
}

func (s *shell) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		if s.store.State() == client.StateAuthenticated {
			fmt.Fprintln(s.out, "commands: list, new <name>, rename <n> <name>, rm <n>, show <n>, in|out <n> <amount> <currency> <description>, deltx <n> <id>, save <n>, refresh, logout, exit")
		} else {
			fmt.Fprintln(s.out, "commands: signup, login, exit")
		}
		return nil
	case "signup", "login":
		return s.authenticate(ctx, cmd)
	case "logout":
		s.store.Logout(ctx)
		fmt.Fprintln(s.out, "Logged out")
		return nil
	case "refresh":
		return s.store.Refresh(ctx)
	case "list":
		return s.list()
	case "new":
		if len(args) == 0 {
			return fmt.Errorf("%w: new <name>", errUsage)
		}
		_, err := s.store.AddSheet(ctx, strings.Join(args, " "))
		if err == nil {
			err = s.list()
		}
		return err
	case "rename":
		if len(args) < 2 {
			return fmt.Errorf("%w: rename <n> <name>", errUsage)
		}
		id, err := s.sheetAt(args[0])
		if err != nil {
			return err
		}
		return s.store.RenameSheet(ctx, id, strings.Join(args[1:], " "))
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("%w: rm <n>", errUsage)
		}
		id, err := s.sheetAt(args[0])
		if err != nil {
			return err
		}
		return s.store.DeleteSheet(ctx, id)
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("%w: show <n>", errUsage)
		}
		return s.show(args[0])
	case "in", "out":
		return s.addTransaction(cmd, args)
	case "deltx":
		if len(args) != 2 {
			return fmt.Errorf("%w: deltx <n> <id>", errUsage)
		}
		id, err := s.sheetAt(args[0])
		if err != nil {
			return err
		}
		txID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad transaction id %q", args[1])
		}
		return s.store.DeleteTransaction(id, txID)
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("%w: save <n>", errUsage)
		}
		id, err := s.sheetAt(args[0])
		if err != nil {
			return err
		}
		if err := s.store.SaveSheet(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Sheet saved successfully")
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (s *shell) authenticate(ctx context.Context, cmd string) error {
	fmt.Fprint(s.out, "username: ")
	username, err := s.in.ReadString('\n')
	if err != nil && username == "" {
		return err
	}
	fmt.Fprint(s.out, "password: ")
	password, err := s.readPassword()
	fmt.Fprintln(s.out)
	if err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if cmd == "signup" {
		err = s.store.Signup(ctx, username, password)
	} else {
		err = s.store.Login(ctx, username, password)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Welcome, %s\n", username)
	return nil
}

func (s *shell) list() error {
	session := s.store.Snapshot()
	if session == nil {
		return client.ErrNotAuthenticated
	}
	for i, sheet := range session.Sheets {
		balance := model.ComputeTotals(sheet.Transactions).Balance
		fmt.Fprintf(s.out, "%d. %s  balance %s  (%d transactions)\n", i+1, sheet.Name, balance.StringFixed(2), len(sheet.Transactions))
	}
	return nil
}

func (s *shell) show(ref string) error {
	sheet, err := s.sheet(ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\n", sheet.Name)
	for _, tx := range sheet.Transactions {
		fmt.Fprintf(s.out, "  [%d] %s  %-20s %10s %s\n", tx.ID, tx.Date, tx.Description, tx.Amount.StringFixed(2), tx.Currency)
	}
	totals := model.ComputeTotals(sheet.Transactions)
	fmt.Fprintf(s.out, "  cash in %s  cash out %s  balance %s\n", totals.CashIn.StringFixed(2), totals.CashOut.StringFixed(2), totals.Balance.StringFixed(2))
	return nil
}

func (s *shell) addTransaction(cmd string, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("%w: %s <n> <amount> <currency> <description>", errUsage, cmd)
	}
	id, err := s.sheetAt(args[0])
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("bad amount %q", args[1])
	}
	dir := client.CashIn
	if cmd == "out" {
		dir = client.CashOut
	}
	tx := s.store.NewTransaction(s.now().Format("2006-01-02"), strings.Join(args[3:], " "), amount, strings.ToUpper(args[2]), dir)
	return s.store.AddTransaction(id, tx)
}

// sheetAt resolves a 1-based position in the sheet list.
func (s *shell) sheetAt(ref string) (uuid.UUID, error) {
	sheet, err := s.sheet(ref)
	if err != nil {
		return uuid.Nil, err
	}
	return sheet.ID, nil
}

func (s *shell) sheet(ref string) (*model.Sheet, error) {
	session := s.store.Snapshot()
	if session == nil {
		return nil, client.ErrNotAuthenticated
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(session.Sheets) {
		return nil, fmt.Errorf("no sheet %q", ref)
	}
	return &session.Sheets[n-1], nil
}
