// Package host integrates with the editor hosting the run. The editor's
// external-file-change notifications are what the guard package suspends
// around in-place rewrites.
package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neovim/go-client/nvim"

	relinterr "relint/internal/errors"
	"relint/internal/logging"
)

const augroup = "relintguard"

// Nvim suspends and resumes Neovim's file-changed handling over msgpack RPC.
// Suspension is per path: a buffer-local FileChangedShell autocmd swallows the
// notification while the rewrite is in flight; resume removes the autocmd and
// runs checktime so the editor picks up the new contents once.
type Nvim struct {
	v      *nvim.Nvim
	logger *logging.Logger
}

// DialNvim connects to the editor's RPC socket. With an empty address the
// NVIM_LISTEN_ADDRESS (or NVIM, for newer versions) environment variable is
// used; if neither is set there is no hosting editor and an error is returned.
func DialNvim(addr string, logger *logging.Logger) (*Nvim, error) {
	if addr == "" {
		addr = os.Getenv("NVIM_LISTEN_ADDRESS")
	}
	if addr == "" {
		addr = os.Getenv("NVIM")
	}
	if addr == "" {
		return nil, relinterr.New(relinterr.HostUnavailable, "no editor RPC address configured")
	}

	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, relinterr.Wrap(relinterr.HostUnavailable, "dial "+addr, err)
	}

	h := &Nvim{v: v, logger: logger.WithComponent("host")}
	b := v.NewBatch()
	b.Command("augroup " + augroup)
	b.Command("augroup END")
	if err := b.Execute(); err != nil {
		_ = v.Close()
		return nil, relinterr.Wrap(relinterr.HostUnavailable, "prepare autocmd group", err)
	}
	return h, nil
}

// Suspend installs the notification-swallowing autocmd for path.
func (h *Nvim) Suspend(path string) error {
	pattern, err := autocmdPattern(path)
	if err != nil {
		return err
	}

	b := h.v.NewBatch()
	b.Command(fmt.Sprintf("autocmd %s FileChangedShell %s let v:fcs_choice = ''", augroup, pattern))
	b.Command(fmt.Sprintf("autocmd %s FileChangedShellPost %s \" suspended by relint", augroup, pattern))
	if err := b.Execute(); err != nil {
		return fmt.Errorf("suspend notifications for %s: %w", path, err)
	}

	h.logger.Debug("Suspended change notifications", map[string]interface{}{
		"path": path,
	})
	return nil
}

// Resume removes the autocmd and lets the editor reload the rewritten file.
func (h *Nvim) Resume(path string) error {
	pattern, err := autocmdPattern(path)
	if err != nil {
		return err
	}

	b := h.v.NewBatch()
	b.Command(fmt.Sprintf("autocmd! %s FileChangedShell %s", augroup, pattern))
	b.Command(fmt.Sprintf("autocmd! %s FileChangedShellPost %s", augroup, pattern))
	b.Command("silent! checktime")
	if err := b.Execute(); err != nil {
		return fmt.Errorf("resume notifications for %s: %w", path, err)
	}

	h.logger.Debug("Resumed change notifications", map[string]interface{}{
		"path": path,
	})
	return nil
}

// Close drops the RPC connection. Suspended paths are not resumed here; that
// is the guard stack's job.
func (h *Nvim) Close() error {
	return h.v.Close()
}

// autocmdPattern turns a file path into an autocmd-pattern-safe absolute path.
func autocmdPattern(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	r := strings.NewReplacer(" ", `\ `, "%", `\%`, "#", `\#`, ",", `\,`)
	return r.Replace(abs), nil
}
