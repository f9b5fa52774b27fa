// Package gitsource keeps local checkouts of remote note repositories.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does. Progress output goes to progress,
// which may be nil.
func Sync(ctx context.Context, repoURL, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	if os.IsNotExist(err) {
		// Path does not exist, clone the repository
		slog.Info("Cloning repository", "url", repoURL, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
		slog.Info("Clone successful", "path", localPath)
	} else if err == nil {
		// Path exists, pull the latest changes
		slog.Info("Pulling latest changes", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		slog.Info("Pull successful (or already up-to-date)", "path", localPath)
	} else {
		// Some other error occurred
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// IsURL reports whether src names a remote repository rather than a local
// directory.
func IsURL(src string) bool {
	if strings.HasPrefix(src, "git@") {
		return true
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		return u.Host != ""
	}
	return false
}

// LocalPath maps a repository URL to its checkout directory under baseDir,
// e.g. https://github.com/a/notes.git -> baseDir/github.com/a/notes.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || parsedURL.Host == "" {
		// scp-like syntax: git@host:owner/repo.git
		if strings.Contains(repoURL, "@") {
			parts := strings.SplitN(repoURL, ":", 2)
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 && parts[1] != "" {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, filepath.FromSlash(repoPath)), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	if strings.Contains(sanitizedPath, "..") {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	return filepath.Join(baseDir, parsedURL.Host, filepath.FromSlash(sanitizedPath)), nil
}
