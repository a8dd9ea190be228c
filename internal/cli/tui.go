// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Starts the full-screen interface.

package cli

import (
	"github.com/jeranaias/todo-tui/internal/ui/app"
)

// HandleTUI runs the interactive interface until the user quits. A
// persisted session is restored on start and kept on quit.
func HandleTUI(env *Env, args Args) error {
	if !env.TTY {
		return &TTYRequiredError{Operation: "start the full-screen interface (try: todo-tui shell)"}
	}

	rt, err := env.Open()
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := app.New(app.Deps{
		Scheduler: rt.Scheduler,
		Store:     rt.Store,
		Monitor:   rt.Monitor,
		Recorder:  rt.Recorder,
		Clock:     rt.Clock,
		Logger:    rt.Logger,
		Watch:     rt.Watch(),
	}, app.Options{
		Language: rt.Config.UI.Language,
		Theme:    rt.Config.UI.Theme,
	})
	if err != nil {
		return err
	}
	return app.Run(m, rt.Config.UI.Mouse)
}
