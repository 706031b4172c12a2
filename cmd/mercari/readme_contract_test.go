package main

import (
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mercari/internal/config"
)

var (
	configKeyBullet = regexp.MustCompile("(?m)^- `([^`]+)`")
	envKeyPattern   = regexp.MustCompile(`MERCARI_[A-Z0-9_]+`)
	commandWord     = regexp.MustCompile(`^[a-z]+$`)
)

func readme(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../README.md")
	if err != nil {
		t.Fatalf("read README.md: %v", err)
	}
	return string(data)
}

// between returns the text after start and before the next end marker.
func between(t *testing.T, text, start, end string) string {
	t.Helper()
	_, after, ok := strings.Cut(text, start)
	if !ok {
		t.Fatalf("README has no %q", start)
	}
	section, _, _ := strings.Cut(after, end)
	return section
}

func sortedSet(values []string) []string {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return slices.Sorted(maps.Keys(set))
}

func TestReadmeListsEveryConfigKey(t *testing.T) {
	section := between(t, readme(t), "Supported config keys:", "Runtime environment variables:")

	var documented []string
	for _, m := range configKeyBullet.FindAllStringSubmatch(section, -1) {
		documented = append(documented, m[1])
	}
	if want := sortedSet(config.AllowedKeys()); !slices.Equal(sortedSet(documented), want) {
		t.Fatalf("README config keys = %v, want %v", sortedSet(documented), want)
	}
}

func TestReadmeListsEveryCommand(t *testing.T) {
	block := between(t, between(t, readme(t), "## Commands", "\n## "), "```bash\n", "```")

	var documented []string
	for _, line := range strings.Split(block, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "mercari" {
			continue
		}
		end := 1
		for end < len(fields) && commandWord.MatchString(fields[end]) {
			end++
		}
		documented = append(documented, strings.Join(fields[1:end], " "))
	}

	cfg := config.Default()
	var actual []string
	var walk func(cmd *cobra.Command, path string)
	walk = func(cmd *cobra.Command, path string) {
		children := slices.DeleteFunc(slices.Clone(cmd.Commands()), func(c *cobra.Command) bool {
			return c.Hidden || c.Name() == "help" || c.Name() == "completion"
		})
		if len(children) == 0 {
			actual = append(actual, strings.TrimSpace(path))
		}
		for _, child := range children {
			walk(child, path+" "+child.Name())
		}
	}
	walk(newRootCmd(&cfg), "")

	if got, want := sortedSet(documented), sortedSet(actual); !slices.Equal(got, want) {
		t.Fatalf("README commands = %v, want %v", got, want)
	}
}

func TestReadmeListsRuntimeEnvironment(t *testing.T) {
	text := readme(t)
	documented := sortedSet(envKeyPattern.FindAllString(text, -1))

	for _, key := range []string{
		"MERCARI_API_URL", "MERCARI_DB", "MERCARI_IMAGES_DIR", "MERCARI_HTTP_TIMEOUT",
		logLevelEnvKey, "MERCARI_CONFIG_DIR", "MERCARI_TRUST_PROJECT_CONFIG",
		config.AllowRemoteEnvKey, "MERCARI_ALLOWED_MEDIA_TYPES",
		"MERCARI_DB_MAX_OPEN_CONNS", "MERCARI_DB_MAX_IDLE_CONNS", "MERCARI_DB_CONN_MAX_LIFETIME",
	} {
		if !slices.Contains(documented, key) {
			t.Errorf("README does not mention %s", key)
		}
	}
	if !strings.Contains(text, "`FRONT_URL`") {
		t.Error("README does not mention FRONT_URL")
	}
}
