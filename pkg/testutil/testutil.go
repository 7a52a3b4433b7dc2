// Package testutil boots a throwaway CPython container whose tomllib
// module serves as the reference TOML parser in conformance tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog/log"
)

// parseScript exits 0 when tomllib accepts the document and 1 with a
// traceback on stderr when it does not.
const parseScript = `import sys, tomllib
with open(sys.argv[1], "rb") as f:
    tomllib.load(f)
`

var (
	once       sync.Once
	setupErr   error
	dockerPool *dockertest.Pool
	resPython  *dockertest.Resource
	workDir    string
	seq        atomic.Int64
)

// Setup starts a python:3.11-alpine container with a shared scratch
// directory mounted at /work. It runs at most once per process; every
// call after the first returns the first call's result.
func Setup(ctx context.Context) error {
	once.Do(func() {
		dockerPool, setupErr = dockertest.NewPool("")
		if setupErr != nil {
			setupErr = fmt.Errorf("connecting to docker: %w", setupErr)
			return
		}
		if setupErr = dockerPool.Client.Ping(); setupErr != nil {
			setupErr = fmt.Errorf("pinging docker: %w", setupErr)
			return
		}

		workDir, setupErr = os.MkdirTemp("", "tomllib-oracle-*")
		if setupErr != nil {
			return
		}

		resPython, setupErr = dockerPool.RunWithOptions(&dockertest.RunOptions{
			Repository: "python",
			Tag:        "3.11-alpine",
			Cmd:        []string{"sleep", "infinity"},
			Mounts:     []string{fmt.Sprintf("%s:/work", workDir)},
		}, func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{
				Name: "no",
			}
		})
		if setupErr != nil {
			setupErr = fmt.Errorf("starting python container: %w", setupErr)
			return
		}
		resPython.Expire(300)

		dockerPool.MaxWait = 2 * time.Minute
		setupErr = dockerPool.Retry(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			code, err := resPython.Exec([]string{"python", "-c", "print(1)"}, dockertest.ExecOptions{})
			if err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("python probe exited %d", code)
			}
			return nil
		})
		if setupErr != nil {
			setupErr = fmt.Errorf("waiting for python: %w", setupErr)
			return
		}

		log.Info().Msg("tomllib oracle container ready")
	})
	return setupErr
}

// Teardown removes the container and the scratch directory.
func Teardown() {
	if dockerPool != nil && resPython != nil {
		if err := dockerPool.Purge(resPython); err != nil {
			log.Error().Err(err).Msg("could not purge python container")
		}
		resPython = nil
	}
	if workDir != "" {
		os.RemoveAll(workDir)
		workDir = ""
	}
}

// ParseTOML feeds doc to CPython's tomllib and reports whether the
// reference parser accepts it. When it does not, output holds the
// traceback. Setup must have succeeded first.
func ParseTOML(doc string) (ok bool, output string, err error) {
	if resPython == nil {
		return false, "", fmt.Errorf("testutil: Setup has not run")
	}

	name := fmt.Sprintf("doc-%d.toml", seq.Add(1))
	if err := os.WriteFile(filepath.Join(workDir, name), []byte(doc), 0o644); err != nil {
		return false, "", fmt.Errorf("writing document: %w", err)
	}

	var stdout, stderr bytes.Buffer
	code, err := resPython.Exec(
		[]string{"python", "-c", parseScript, "/work/" + name},
		dockertest.ExecOptions{StdOut: &stdout, StdErr: &stderr},
	)
	if err != nil {
		return false, "", fmt.Errorf("running tomllib: %w", err)
	}
	return code == 0, stderr.String(), nil
}
