package core

import (
	"context"
	"fmt"
	"os"
)

// Source names a revision of a remote repository and where to put it.
type Source struct {
	URL     string
	Version string
	Dir     string
}

// Checkout is a local copy of exactly one revision.
type Checkout struct {
	Dir       string `json:"dir"`
	URL       string `json:"url"`
	Version   string `json:"version"`
	Reference string `json:"reference"`
	Commit    string `json:"commit,omitempty"`
}

// Fetcher produces a clean checkout and registers the same revision with
// the package installer.
type Fetcher struct {
	Cloner    Cloner
	Installer Installer
	Logger    Logger
}

// Fetch removes any previous checkout at src.Dir, clones src.Version and
// installs it. Every failure is returned as is; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, src Source, env []string) (*Checkout, error) {
	if err := RemoveCheckout(src.Dir); err != nil {
		return nil, err
	}

	f.Logger.Debugf("cloning %s@%s into %s", src.URL, src.Version, src.Dir)
	co, err := f.Cloner.Clone(ctx, src)
	if err != nil {
		return nil, WrapFetchError(ErrCloneFailed, src.URL, src.Version, err)
	}
	f.Logger.Noticef("cloned %s at %s (%s)", co.Reference, shortCommit(co.Commit), co.Dir)

	if f.Installer == nil {
		f.Logger.Debugf("install step disabled")
		return co, nil
	}

	spec := PackageSpec(src.URL, src.Version)
	f.Logger.Debugf("installing %s", spec)
	if err := f.Installer.Install(ctx, spec, env); err != nil {
		return co, WrapFetchError(ErrInstallFailed, src.URL, src.Version, err)
	}
	f.Logger.Noticef("installed %s", spec)
	return co, nil
}

// RemoveCheckout deletes dir recursively. A missing dir is not an error.
func RemoveCheckout(dir string) error {
	if dir == "" || dir == "/" {
		return fmt.Errorf("%w: refusing to remove %q", ErrCheckoutRemove, dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrCheckoutRemove, err)
	}
	return nil
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	if hash == "" {
		return "unknown"
	}
	return hash
}
