package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"bucketgate/internal/config"
	"bucketgate/internal/gateway"
	"bucketgate/internal/logger"
	"bucketgate/internal/state"

	"github.com/rs/zerolog"
)

var openGateway = func(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (objectGateway, error) {
	return gateway.Open(ctx, cfg, log)
}

func Run(args []string) error {
	fs := flag.NewFlagSet("bucketgate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath, err := state.ConfigPath()
	if err != nil {
		return err
	}
	envPath, err := state.DotEnvPath()
	if err != nil {
		return err
	}
	fs.StringVar(&configPath, "config", configPath, "path to config file")
	fs.StringVar(&envPath, "env-file", envPath, "path to a .env file with BUCKETGATE_* variables")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return usageError()
	}
	run, err := parseCommand(rest[0], rest[1:])
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(envPath); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gw, err := openGateway(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return run(ctx, gw)
}

type commandFunc func(ctx context.Context, gw objectGateway) error

// parseCommand validates the subcommand and its arguments before any config
// is read or store client is built.
func parseCommand(command string, args []string) (commandFunc, error) {
	switch command {
	case "list":
		opts, err := parseListArgs(args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, gw objectGateway) error {
			return runList(ctx, gw, opts)
		}, nil
	case "upload":
		opts, name, path, err := parseUploadArgs(args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, gw objectGateway) error {
			return runUpload(ctx, gw, name, path, opts)
		}, nil
	case "url":
		name, err := parseNameArg("url", args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, gw objectGateway) error {
			return runURL(ctx, gw, name)
		}, nil
	case "exists":
		name, err := parseNameArg("exists", args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, gw objectGateway) error {
			return runExists(ctx, gw, name)
		}, nil
	case "remove":
		name, err := parseNameArg("remove", args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, gw objectGateway) error {
			return runRemove(ctx, gw, name)
		}, nil
	default:
		return nil, usageError()
	}
}

func usageError() error {
	return errors.New("usage: bucketgate [-config path] [-env-file path] list [--all] | upload [--public] [--replace] <name> <file> | url <name> | exists <name> | remove <name>")
}

func runList(ctx context.Context, gw objectGateway, opts listOptions) error {
	if !opts.All {
		keys, err := gw.List(ctx)
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		fmt.Printf("objects=%d\n", len(keys))
		return nil
	}

	count := 0
	for key, err := range gw.Objects(ctx) {
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}
		fmt.Println(key)
		count++
	}
	fmt.Printf("objects=%d\n", count)
	return nil
}

func runUpload(ctx context.Context, gw objectGateway, name, path string, opts uploadOptions) error {
	result, err := gw.Upload(ctx, name, path, gateway.UploadOptions{
		Public:  opts.Public,
		Replace: opts.Replace,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	if result.Skipped {
		fmt.Printf("upload skipped: key=%s already exists\n", result.Key)
		return nil
	}
	fmt.Printf("upload complete: key=%s public=%t url=%s\n", result.Key, result.Public, result.URL)
	return nil
}

func runURL(ctx context.Context, gw objectGateway, name string) error {
	url, err := gw.URL(ctx, name)
	if err != nil {
		return fmt.Errorf("presign %s: %w", name, err)
	}
	fmt.Println(url)
	return nil
}

func runExists(ctx context.Context, gw objectGateway, name string) error {
	exists, err := gw.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("exists %s: %w", name, err)
	}
	fmt.Printf("exists=%t\n", exists)
	return nil
}

func runRemove(ctx context.Context, gw objectGateway, name string) error {
	removed, err := gw.Remove(ctx, name)
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	if !removed {
		fmt.Printf("remove skipped: %s not found\n", name)
		return nil
	}
	fmt.Printf("remove complete: %s\n", name)
	return nil
}
