// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// token_cmd.go - Development tokens.
//
// Mints an HS256 token for a backend running with the same secret, so the
// client can be exercised without the real identity provider.
//
//	todo-tui token --user alice --name "Alice Smith" --ttl 8h
//	todo-tui login --token "$(todo-tui token --user alice -q)"

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/todo-tui/internal/session"
)

// DevSecretEnv supplies the signing secret when --secret is absent.
const DevSecretEnv = "TODO_TUI_DEV_SECRET"

// defaultDevSecret matches the backend's development profile.
const defaultDevSecret = "todo-dev-secret"

// defaultTokenTTL is the token lifetime when --ttl is absent.
const defaultTokenTTL = 24 * time.Hour

// HandleToken prints a signed development token.
func HandleToken(env *Env, args Args) error {
	f := args.Flags
	user, err := f.RequireFlag("user")
	if err != nil {
		return err
	}
	ttl, err := f.FlagDuration("ttl", defaultTokenTTL)
	if err != nil {
		return err
	}
	secret := f.Flag("secret")
	if secret == "" {
		secret = os.Getenv(DevSecretEnv)
	}
	if secret == "" {
		secret = defaultDevSecret
	}

	now := time.Now()
	if env.Clock != nil {
		now = env.Clock.Now()
	}
	token, err := session.MintDevToken(user, f.Flag("name"), f.Flag("email"), secret, now, ttl)
	if err != nil {
		return err
	}

	if args.JSON {
		data := TokenData{Token: token, UserID: user}
		if ttl > 0 {
			exp := now.Add(ttl).UTC()
			data.ExpiresAt = &exp
		}
		return NewJSONResponse("token", data).Write(env.Stdout)
	}

	// The token alone goes to stdout for command substitution.
	fmt.Fprintln(env.Stdout, token)
	if args.Quiet {
		return nil
	}
	if ttl > 0 {
		fmt.Fprintln(env.Stderr, DimStyle.Render(fmt.Sprintf("expires %s", now.Add(ttl).Format(time.RFC3339))))
	}
	if secret == defaultDevSecret {
		fmt.Fprintln(env.Stderr, DimStyle.Render("signed with the default development secret"))
	}
	return nil
}
