package main

import (
	"context"
	"errors"
	"fmt"
	"wticket-bot/lib/configutil"
	"wticket-bot/lib/osutil"
	"wticket-bot/lib/restyutil"
	"wticket-bot/lib/scrapers/wticket/browser"
	"wticket-bot/lib/scrapers/wticket/core"
	"wticket-bot/lib/telemetry"

	"github.com/spf13/cobra"
)

type Config struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
	// drive the login page with a real browser instead of the plain
	// http flow; needed on deployments with a script-heavy login page
	BrowserLogin bool `json:"browser_login"`
	// when set, every request/response pair is dumped here
	DebugHttpDir string `json:"debug_http_dir"`
}

var rootCmd = &cobra.Command{
	Use:   "wticket",
	Short: "poke at a WTicket instance from the command line",
}

// login authenticates a fresh client from config.json5. The returned
// cleanup logs out best effort.
func login(ctx context.Context) (*core.Client, func(), error) {
	config, err := configutil.Read[Config]("config.json5")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config.json5: %w", err)
	}

	var debug restyutil.DebugOutput
	if config.DebugHttpDir != "" {
		debug = restyutil.NewFilesystemOutput(config.DebugHttpDir)
	}

	client, err := core.NewClient(core.ClientOptions{
		BaseUrl: "https://" + config.Host,
		Debug:   debug,
	})
	if err != nil {
		return nil, nil, err
	}

	if config.BrowserLogin {
		chrome, closeChrome, err := browser.NewChrome(ctx, browser.ChromeOptions{})
		if err != nil {
			return nil, nil, err
		}
		manager := browser.NewSessionManager(client, chrome)
		err = manager.Login(ctx, config.Username, config.Password)
		// the session lives in the core client's cookies from here on,
		// the browser is only needed for the login dance
		closeChrome()
		if err != nil {
			return nil, nil, err
		}
	} else {
		err = client.Login(ctx, config.Username, config.Password)
		if err != nil {
			return nil, nil, err
		}
	}

	cleanup := func() {
		client.Logout(context.Background())
	}
	return client, cleanup, nil
}

func main() {
	ctx := osutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "wticket-cli")
	if err != nil && !errors.Is(err, telemetry.ErrNoConfig) {
		osutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(context.Background())
	}

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(staffCmd)
	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(messageCmd)

	err = rootCmd.ExecuteContext(ctx)
	if err != nil {
		osutil.Fatal("command failed", err)
	}
}
