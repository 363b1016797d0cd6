// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package retention

import (
	"context"
	"errors"
	"io"

	"github.com/netSkope/spo-retention-tool/internal/config"
	"github.com/netSkope/spo-retention-tool/internal/console"
	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
	"github.com/netSkope/spo-retention-tool/internal/site"
	"go.uber.org/zap"
)

const menuText = `
SharePoint Online retention tool
  1) Enable automatic version trimming (tenant-wide)
  2) Enable automatic version trimming (selected sites)
  3) Preservation store status check (CSV report)
  4) Clean up versions by age
  5) Clean up versions by count
  6) Enable trimming and clean up (selected sites)
  7) Review preservation store contents
  8) Download preservation store contents
  9) Exit
`

// Run drives the interactive menu until the operator exits or input ends.
// An action error is printed and the menu resumes; a cancelled site
// selection returns to the menu silently.
func (t *Tool) Run(ctx context.Context) error {
	for {
		t.console.Printf("%s", menuText)
		choice, err := t.console.ReadLine("Choose an option (1-9): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if choice == "9" || choice == "q" {
			return nil
		}

		action, ok := t.actions()[choice]
		if !ok {
			t.console.Errorf("Unknown option %q", choice)
			continue
		}

		if err := action(ctx); err != nil {
			switch {
			case errors.Is(err, site.ErrCancelled):
			case errors.Is(err, io.EOF):
				return nil
			default:
				t.console.Errorf("%v", err)
				t.logger.Error("Menu action failed",
					zap.String("option", choice), zap.Error(err))
			}
		}
	}
}

func (t *Tool) actions() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"1": t.EnableTenantAutoTrim,
		"2": t.EnableSiteAutoTrim,
		"3": t.StatusCheck,
		"4": t.CleanupByAge,
		"5": t.CleanupByCount,
		"6": t.EnableAndCleanup,
		"7": t.ReviewStore,
		"8": t.DownloadStore,
	}
}

// PromptAuthMode asks the operator for an authentication mode when the
// configuration does not pin one, filling in the credential material the
// chosen mode needs.
func PromptAuthMode(cons *console.Console, cfg *config.Config) error {
	if cfg.AuthMode != "" {
		return nil
	}

	for {
		cons.Printf("\nAuthentication\n  1) Client secret\n  2) Certificate (PFX)\n  3) Device code\n")
		choice, err := cons.ReadLine("Choose an option (1-3): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			cfg.AuthMode = sharepoint.AuthModeSecret
			if cfg.ClientSecret == "" {
				if cfg.ClientSecret, err = cons.ReadLine("Client secret: "); err != nil {
					return err
				}
			}
		case "2":
			cfg.AuthMode = sharepoint.AuthModeCertificate
			if cfg.PfxPath == "" {
				if cfg.PfxPath, err = cons.ReadLine("PFX file path: "); err != nil {
					return err
				}
			}
			if cfg.PfxPassword == "" {
				if cfg.PfxPassword, err = cons.ReadLine("PFX password: "); err != nil {
					return err
				}
			}
		case "3":
			cfg.AuthMode = sharepoint.AuthModeDeviceCode
		default:
			cons.Errorf("Unknown option %q", choice)
			continue
		}
		return nil
	}
}
