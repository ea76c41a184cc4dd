package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-entra-users/config"
	"github.com/oksasatya/go-entra-users/pkg/authclient"
	"github.com/oksasatya/go-entra-users/pkg/graph"
	"github.com/oksasatya/go-entra-users/pkg/pagination"
	"github.com/oksasatya/go-entra-users/pkg/usuariosclient"
)

const usage = `usage: usuarios <command> [flags]

commands:
  login                          sign in with Entra ID
  logout                         forget the signed-in account
  whoami                         show the signed-in account
  profile                        show the Microsoft Graph profile
  groups                         list tenant groups
  tenant-users [-top N]          list tenant users
  list [-page N] [-per-page N]   list usuarios
  get <id>                       show one usuario
  create -nome -email -senha     create a usuario
  edit -id -nome -email          edit a usuario
  delete <id>                    delete a usuario
  search <text> [-size N]        search usuarios
`

type app struct {
	cfg      *config.ClientConfig
	logger   *logrus.Logger
	provider *authclient.OAuthProvider
	graph    *graph.Client
	api      *usuariosclient.Client
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if os.Getenv("USUARIOS_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}

	a, err := newApp(config.LoadClient(), logger)
	if err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.ClientConfig, logger *logrus.Logger) (*app, error) {
	provider, err := authclient.NewOAuthProvider(authclient.Config{
		ClientID:    cfg.ClientID,
		TenantID:    cfg.TenantID,
		Instance:    cfg.Instance,
		RedirectURL: cfg.RedirectURL,
		LoginScopes: cfg.GraphScopes,
	}, &authclient.LoopbackInteractor{RedirectURL: cfg.RedirectURL}, authclient.NewStore(),
		authclient.FileCache{Path: authclient.DefaultCachePath()}, logger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &authclient.Transport{
			Provider:  provider,
			Scopes:    cfg.APIScopes,
			Protected: []string{cfg.APIBaseURL + "/api"},
		},
	}
	gc, err := graph.NewClient(cfg.GraphEndpoint, provider, logger, nil)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		graph:    gc,
		api:      usuariosclient.New(cfg.APIBaseURL, httpClient),
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		loginCtx, cancel := context.WithTimeout(ctx, a.cfg.LoginTimeout)
		defer cancel()
		acct, err := a.provider.Login(loginCtx)
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s (%s)\n", acct.Name, acct.Username)
		return nil
	case "logout":
		return a.provider.Logout(ctx)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}

	if !authclient.Guard(ctx, a.provider.Store(), authclient.GuardTimeout) {
		return errors.New("not signed in; run `usuarios login` first")
	}

	switch cmd {
	case "whoami":
		return printJSON(map[string]any{
			"user":         a.provider.UserInfo(),
			"authority":    a.cfg.Authority(),
			"tokenExpired": a.provider.IsTokenExpired(),
		})
	case "profile":
		p, err := a.graph.UserProfile(ctx)
		if err != nil {
			return err
		}
		return printJSON(p)
	case "groups":
		groups, err := a.graph.TenantGroups(ctx)
		if err != nil {
			return err
		}
		return printJSON(groups)
	case "tenant-users":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		top := fs.Int("top", 20, "number of users")
		if err := fs.Parse(args); err != nil {
			return err
		}
		users, err := a.graph.TenantUsers(ctx, *top)
		if err != nil {
			return err
		}
		return printJSON(users)
	case "list":
		return a.list(ctx, args)
	case "get":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		u, err := a.api.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(u)
	case "create":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		req := usuariosclient.InsertRequest{}
		fs.StringVar(&req.Nome, "nome", "", "name")
		fs.StringVar(&req.Email, "email", "", "email")
		fs.StringVar(&req.Senha, "senha", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		u, err := a.api.Insert(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(u)
	case "edit":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		req := usuariosclient.EditRequest{}
		fs.Int64Var(&req.ID, "id", 0, "usuario id")
		fs.StringVar(&req.Nome, "nome", "", "name")
		fs.StringVar(&req.Email, "email", "", "email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		u, err := a.api.Edit(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(u)
	case "delete":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		if err := a.api.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("usuario %d deleted\n", id)
		return nil
	case "search":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		size := fs.Int("size", 10, "max results")
		if err := fs.Parse(args); err != nil {
			return err
		}
		users, err := a.api.Search(ctx, strings.Join(fs.Args(), " "), *size)
		if err != nil {
			return err
		}
		return printUsers(users)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", pagination.DefaultPerPage, fmt.Sprintf("page size, one of %v", pagination.PerPageOptions))
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := a.api.List(ctx)
	if err != nil {
		return err
	}
	p := pagination.New(len(users))
	p.SetPerPage(*perPage)
	if *page != 1 && !p.GoTo(*page) {
		return fmt.Errorf("page %d out of range (1-%d)", *page, max(p.Pages(), 1))
	}
	if err := printUsers(pagination.Page(p, users)); err != nil {
		return err
	}
	fmt.Printf("\npage %d of %d  %v  total %d\n", p.Current, max(p.Pages(), 1), p.Window(), len(users))
	return nil
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func printUsers(users []usuariosclient.User) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOME\tEMAIL\tCRIADO EM")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Nome, u.Email, u.DataCriacao.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
