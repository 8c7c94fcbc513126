// adminctl is the operator console for the activation-code service. It
// talks to the admin API with a persisted session token, so a login
// survives across invocations until logout.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"activation-code-admin/internal/client"
	"activation-code-admin/internal/config"
	"activation-code-admin/internal/infra/i18n"
	"activation-code-admin/internal/infra/logging"
)

const usage = `usage: adminctl [-config path] [-dev] <command> [args]

commands:
  login <username>          authenticate and store a session token
  logout                    drop the stored session token
  list [-used|-unused]      list activation codes page by page
  stats                     show aggregate counters
  generate <count> [prefix] bulk-generate codes
  delete <code>             delete one code
  delete-expired            delete every expired code
  batch-delete <pattern>    preview and delete codes matching a pattern
      -regex                treat the pattern as a regular expression
  export [dir]              write every code to a text file
  change-password           rotate the admin password
`

type console struct {
	cli *client.Client
	tr  *i18n.Translator
	in  *bufio.Reader
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (verbose logs)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fatal("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Client.Language)
	if err != nil {
		fatal("i18n: %v", err)
	}

	tokenFile := cfg.Client.TokenFile
	if tokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fatal("home dir: %v", err)
		}
		tokenFile = home + "/.adminctl/token"
	}

	c := &console{
		cli: client.New(cfg.Client.BaseURL, client.NewFileTokenStore(tokenFile), logger),
		tr:  tr,
		in:  bufio.NewReader(os.Stdin),
	}

	ctx := context.Background()
	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := c.run(ctx, cmd, args); err != nil {
		fatal("%s: %v", tr.T("error_prefix"), err)
	}
}

func (c *console) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.login(ctx, args)
	case "logout":
		if err := c.cli.Logout(); err != nil {
			return err
		}
		fmt.Println(c.tr.T("logout_success"))
		return nil
	case "list":
		return c.list(ctx, args)
	case "stats":
		return c.stats(ctx)
	case "generate":
		return c.generate(ctx, args)
	case "delete":
		return c.deleteOne(ctx, args)
	case "delete-expired":
		return c.deleteExpired(ctx)
	case "batch-delete":
		return c.batchDelete(ctx, args)
	case "export":
		return c.export(ctx, args)
	case "change-password":
		return c.changePassword(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *console) login(ctx context.Context, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		username = c.prompt(c.tr.T("login_prompt_username"))
	}
	password := c.prompt(c.tr.T("login_prompt_password"))
	if username == "" || password == "" {
		return fmt.Errorf("%s", c.tr.T("login_both_required"))
	}

	if _, err := c.cli.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Println(c.tr.T("login_success", username))
	return nil
}

func (c *console) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	used := fs.Bool("used", false, "only used codes")
	unused := fs.Bool("unused", false, "only unused codes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var isUsed *bool
	if *used {
		v := true
		isUsed = &v
	} else if *unused {
		v := false
		isUsed = &v
	}

	view := client.NewCodeListView(c.cli, client.InteractivePageSize, isUsed)
	if err := view.Reload(ctx); err != nil {
		return err
	}
	if view.TotalCount() == 0 {
		fmt.Println(c.tr.T("codes_none"))
		return nil
	}

	fmt.Println(c.tr.T("codes_header"))
	page := 1
	for {
		c.printCodes(view)
		fmt.Println(c.tr.T("codes_page", page, len(view.Loaded()), view.TotalCount()))
		if !view.HasMore() {
			return nil
		}
		answer := c.prompt(c.tr.T("codes_load_more") + " [y/N]")
		if !isYes(answer) {
			return nil
		}
		if err := view.LoadMore(ctx); err != nil {
			return err
		}
		page++
	}
}

func (c *console) printCodes(view *client.CodeListView) {
	now := time.Now()
	for _, code := range view.Visible() {
		status := c.tr.T("status_" + string(code.Status(now)))
		line := fmt.Sprintf("%-24s %-10s %s", code.Code, status, code.CreatedAt.Format(time.RFC3339))
		if code.UserID != nil {
			line += "  " + *code.UserID
		}
		fmt.Println(line)
	}
}

func (c *console) stats(ctx context.Context) error {
	stats, err := c.cli.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Println(c.tr.T("stats_header"))
	fmt.Printf("%s: %d\n", c.tr.T("stats_total"), stats.TotalCodes)
	fmt.Printf("%s: %d\n", c.tr.T("stats_unused"), stats.UnusedCodes)
	fmt.Printf("%s: %d\n", c.tr.T("stats_used"), stats.UsedCodes)
	fmt.Printf("%s: %d\n", c.tr.T("stats_active"), stats.ActiveCodes)
	return nil
}

func (c *console) generate(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: generate <count> [prefix]")
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 || count > 20000 {
		return fmt.Errorf("%s", c.tr.T("generate_count_range"))
	}
	prefix := ""
	if len(args) > 1 {
		prefix = args[1]
	}

	res, err := c.cli.GenerateCodes(ctx, count, prefix)
	if err != nil {
		return err
	}
	fmt.Println(c.tr.T("generate_success", res.Count))
	for _, code := range res.Codes {
		fmt.Println(code)
	}
	if res.Note != "" {
		fmt.Println(c.tr.T("generate_list_omitted"))
	}
	return nil
}

func (c *console) deleteOne(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <code>")
	}
	if !isYes(c.prompt(c.tr.T("delete_confirm") + " [y/N]")) {
		return nil
	}
	if _, err := c.cli.DeleteCode(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println(c.tr.T("delete_success", args[0]))
	return nil
}

func (c *console) deleteExpired(ctx context.Context) error {
	if !isYes(c.prompt(c.tr.T("delete_expired_confirm") + " [y/N]")) {
		return nil
	}
	msg, err := c.cli.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// batchDelete walks the two-phase workflow: dry-run preview, show the
// matched codes, then an explicit confirmation before the commit.
func (c *console) batchDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch-delete", flag.ContinueOnError)
	isRegex := fs.Bool("regex", false, "treat the pattern as a regular expression")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: batch-delete [-regex] <pattern>")
	}
	pattern := fs.Arg(0)
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("%s", c.tr.T("batch_pattern_required"))
	}

	fmt.Println(c.tr.T("batch_title"))
	flow := client.NewBatchDeleteFlow(c.cli)
	preview, err := flow.Preview(ctx, pattern, *isRegex)
	if err != nil {
		return err
	}

	fmt.Println(c.tr.T("batch_found", preview.MatchedCount))
	if preview.MatchedCount == 0 {
		fmt.Println(c.tr.T("batch_nothing"))
		return nil
	}

	fmt.Println(c.tr.T("batch_matched_header"))
	const shown = 10
	for i, code := range preview.MatchedCodes {
		if i == shown {
			break
		}
		fmt.Println("  " + code)
	}
	if preview.MatchedCount > shown {
		fmt.Println(c.tr.T("batch_and_more", preview.MatchedCount-shown))
	}

	fmt.Println(c.tr.T("batch_warning"))
	if !isYes(c.prompt(c.tr.T("batch_confirm", preview.MatchedCount))) {
		flow.Back()
		fmt.Println(c.tr.T("batch_cancelled"))
		return nil
	}

	res, err := flow.ConfirmDelete(ctx)
	if err != nil {
		return err
	}
	fmt.Println(c.tr.T("batch_deleted", res.DeletedCount))
	return nil
}

func (c *console) export(ctx context.Context, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path, count, err := client.ExportCodes(ctx, c.cli, dir)
	if err != nil {
		return err
	}
	fmt.Println(c.tr.T("export_success", count, path))
	return nil
}

func (c *console) changePassword(ctx context.Context) error {
	oldPassword := c.prompt(c.tr.T("login_prompt_password"))
	newPassword := c.prompt("New password")
	confirm := c.prompt("Confirm new password")

	// Local checks before any network call.
	if len(newPassword) < 6 {
		return fmt.Errorf("%s", c.tr.T("password_min_length"))
	}
	if newPassword != confirm {
		return fmt.Errorf("%s", c.tr.T("password_mismatch"))
	}
	if newPassword == oldPassword {
		return fmt.Errorf("%s", c.tr.T("password_same"))
	}

	if _, err := c.cli.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Println(c.tr.T("password_changed"))
	return nil
}

func (c *console) prompt(label string) string {
	fmt.Print(label + ": ")
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
