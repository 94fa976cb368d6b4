package probe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Source returns the most recent lines of a container's log.
type Source interface {
	Name() string
	Tail(ctx context.Context, lines int) (string, error)
}

// FileSource reads a stored log file.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return f.Path }

// Tail returns the last lines of the file, newline-joined.
func (f FileSource) Tail(ctx context.Context, lines int) (string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	ring := make([]string, 0, lines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if len(ring) == lines {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", f.Path, err)
	}
	return strings.Join(ring, "\n"), nil
}

// DockerSource reads a running container's log through the docker CLI.
type DockerSource struct {
	Container string
	Binary    string // defaults to "docker"
}

func (d DockerSource) Name() string { return d.Container }

// Tail runs `docker logs --tail N <container>`. Containers log to both
// stdout and stderr, so both are captured.
func (d DockerSource) Tail(ctx context.Context, lines int) (string, error) {
	bin := d.Binary
	if bin == "" {
		bin = "docker"
	}
	cmd := exec.CommandContext(ctx, bin, "logs", "--tail", strconv.Itoa(lines), d.Container)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("docker logs %s: %w: %s", d.Container, err, strings.TrimSpace(string(out)))
	}
	return strings.ToValidUTF8(string(out), "�"), nil
}
