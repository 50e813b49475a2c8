package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/temirov/pagegen/internal/codegen"
	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/config"
	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/services/clipboard"
)

const (
	jsonCompletion   = `{"files":{"README.md":"# Demo\n","docs/notes.txt":"remember the milk\n"}}`
	markerCompletion = "Here you go.\n\n// File: README.md\n```md\n# Demo\n```\n\n// File: docs/notes.txt\n```txt\nremember the milk\n```\n"
)

type commandRun struct {
	stdout string
	stderr string
	err    error
}

func runRootCommand(deps dependencies, arguments ...string) commandRun {
	rootCommand := createRootCommand(deps)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	rootCommand.SetOut(&stdout)
	rootCommand.SetErr(&stderr)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, arguments))
	executeErr := rootCommand.ExecuteContext(context.Background())
	return commandRun{stdout: stdout.String(), stderr: stderr.String(), err: executeErr}
}

// writeNotionConfiguration points the local configuration of workingDirectory at apiBase.
func writeNotionConfiguration(t *testing.T, workingDirectory string, apiBase string) {
	t.Helper()
	content := "notion:\n  api_base: " + apiBase + "\nlog:\n  level: error\n"
	if writeErr := os.WriteFile(filepath.Join(workingDirectory, config.LocalConfigFileName), []byte(content), 0o600); writeErr != nil {
		t.Fatalf("write configuration: %v", writeErr)
	}
}

func TestExtractCommand(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		input          string
		useFile        bool
		arguments      []string
		writeOutput    bool
		expectedErr    error
		expectedErrMsg string
		verify         func(t *testing.T, run commandRun)
	}{
		{
			name:    "json from file",
			input:   jsonCompletion,
			useFile: true,
			verify: func(t *testing.T, run commandRun) {
				var result commands.ExtractResult
				if decodeErr := json.Unmarshal([]byte(run.stdout), &result); decodeErr != nil {
					t.Fatalf("decode output: %v\n%s", decodeErr, run.stdout)
				}
				if result.Strategy != "direct_json" || len(result.Files) != 2 {
					t.Fatalf("unexpected result %+v", result)
				}
			},
		},
		{
			name:      "raw from standard input",
			input:     markerCompletion,
			arguments: []string{"-", "--format", "raw"},
			verify: func(t *testing.T, run commandRun) {
				for _, expected := range []string{"docs/\n", "notes.txt\n", "README.md\n", "Summary: 2 files", "// File: docs/notes.txt\n"} {
					if !strings.Contains(run.stdout, expected) {
						t.Fatalf("expected %q in output:\n%s", expected, run.stdout)
					}
				}
			},
		},
		{
			name:        "writes files",
			input:       jsonCompletion,
			writeOutput: true,
			verify: func(t *testing.T, run commandRun) {
				if !strings.Contains(run.stderr, "Wrote 2 files") {
					t.Fatalf("expected write report, got %q", run.stderr)
				}
			},
		},
		{
			name:           "invalid format",
			input:          jsonCompletion,
			arguments:      []string{"--format", "xml"},
			expectedErrMsg: "invalid format value 'xml'",
		},
		{
			name:        "empty completion",
			input:       "   ",
			expectedErr: commands.ErrEmptyCompletion,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			workingDirectory := t.TempDir()
			arguments := []string{"extract"}
			if testCase.useFile {
				completionPath := filepath.Join(workingDirectory, "completion.txt")
				if writeErr := os.WriteFile(completionPath, []byte(testCase.input), 0o600); writeErr != nil {
					t.Fatalf("write completion: %v", writeErr)
				}
				arguments = append(arguments, completionPath)
			}
			arguments = append(arguments, testCase.arguments...)
			outDirectory := filepath.Join(workingDirectory, "out")
			if testCase.writeOutput {
				arguments = append(arguments, "--out", outDirectory)
			}

			run := runRootCommand(dependencies{stdin: strings.NewReader(testCase.input), workingDirectory: workingDirectory}, arguments...)
			if testCase.expectedErr != nil {
				if !errors.Is(run.err, testCase.expectedErr) {
					t.Fatalf("expected %v, got %v", testCase.expectedErr, run.err)
				}
				return
			}
			if testCase.expectedErrMsg != "" {
				if run.err == nil || !strings.Contains(run.err.Error(), testCase.expectedErrMsg) {
					t.Fatalf("expected error containing %q, got %v", testCase.expectedErrMsg, run.err)
				}
				return
			}
			if run.err != nil {
				t.Fatalf("extract error: %v", run.err)
			}
			if testCase.writeOutput {
				content, readErr := os.ReadFile(filepath.Join(outDirectory, "docs", "notes.txt"))
				if readErr != nil || string(content) != "remember the milk\n" {
					t.Fatalf("unexpected written file %q (%v)", content, readErr)
				}
			}
			testCase.verify(t, run)
		})
	}
}

func TestTreeCommand(t *testing.T) {
	t.Parallel()

	notionServer := newHandbookNotion(t)

	testCases := []struct {
		name           string
		arguments      []string
		expectedOutput string
		expectedErr    error
		expectedErrMsg string
	}{
		{
			name:           "raw outline",
			arguments:      []string{"tree", handbookPageID, "--notion-token", acceptedNotionKey, "--format", "raw"},
			expectedOutput: "Handbook (1 block)\nSummary: 1 page, 0 subpages\n",
		},
		{
			name:           "json outline",
			arguments:      []string{"tree", "https://www.notion.so/Handbook-" + handbookPageID, "--notion-token", acceptedNotionKey, "--depth", "0"},
			expectedOutput: `"title": "Handbook"`,
		},
		{
			name:        "rejected token",
			arguments:   []string{"tree", handbookPageID, "--notion-token", "secret_wrong"},
			expectedErr: notion.ErrUnauthorized,
		},
		{
			name:           "missing page id",
			arguments:      []string{"tree"},
			expectedErrMsg: "accepts 1 arg(s)",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			workingDirectory := t.TempDir()
			writeNotionConfiguration(t, workingDirectory, notionServer.URL)

			run := runRootCommand(dependencies{workingDirectory: workingDirectory}, testCase.arguments...)
			if testCase.expectedErr != nil {
				if !errors.Is(run.err, testCase.expectedErr) {
					t.Fatalf("expected %v, got %v", testCase.expectedErr, run.err)
				}
				return
			}
			if testCase.expectedErrMsg != "" {
				if run.err == nil || !strings.Contains(run.err.Error(), testCase.expectedErrMsg) {
					t.Fatalf("expected error containing %q, got %v", testCase.expectedErrMsg, run.err)
				}
				return
			}
			if run.err != nil {
				t.Fatalf("tree error: %v", run.err)
			}
			if !strings.Contains(run.stdout, testCase.expectedOutput) {
				t.Fatalf("expected %q in output:\n%s", testCase.expectedOutput, run.stdout)
			}
		})
	}
}

func TestPromptCommand(t *testing.T) {
	t.Parallel()

	notionServer := newHandbookNotion(t)

	testCases := []struct {
		name             string
		arguments        []string
		expectedFragment string
		expectCopy       bool
	}{
		{
			name:             "raw prompt copied to clipboard",
			arguments:        []string{"prompt", handbookPageID, "--project-type", "Vue", "--copy"},
			expectedFragment: "Create a Vue project",
			expectCopy:       true,
		},
		{
			name:             "html documentation",
			arguments:        []string{"prompt", handbookPageID, "--format", "html"},
			expectedFragment: "<p>Welcome aboard</p>",
		},
		{
			name:             "json result",
			arguments:        []string{"prompt", handbookPageID, "--format", "json"},
			expectedFragment: `"documentation": "## Handbook`,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			workingDirectory := t.TempDir()
			writeNotionConfiguration(t, workingDirectory, notionServer.URL)
			var copied []string
			recorder := clipboard.CopierFunc(func(text string) error {
				copied = append(copied, text)
				return nil
			})

			arguments := append(append([]string{}, testCase.arguments...), "--notion-token", acceptedNotionKey)
			run := runRootCommand(dependencies{clipboard: recorder, workingDirectory: workingDirectory}, arguments...)
			if run.err != nil {
				t.Fatalf("prompt error: %v", run.err)
			}
			if !strings.Contains(run.stdout, testCase.expectedFragment) {
				t.Fatalf("expected %q in output:\n%s", testCase.expectedFragment, run.stdout)
			}
			if testCase.expectCopy != (len(copied) == 1) {
				t.Fatalf("unexpected clipboard contents %q", copied)
			}
			if testCase.expectCopy && !strings.Contains(copied[0], "Welcome aboard") {
				t.Fatalf("clipboard does not hold the prompt: %q", copied[0])
			}
		})
	}
}

func TestGenerateCommandRequiresGenerator(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("PAGEGEN_ANTHROPIC_API_KEY", "")

	notionServer := newHandbookNotion(t)
	workingDirectory := t.TempDir()
	writeNotionConfiguration(t, workingDirectory, notionServer.URL)

	run := runRootCommand(dependencies{workingDirectory: workingDirectory}, "generate", handbookPageID, "--notion-token", acceptedNotionKey)
	if !errors.Is(run.err, codegen.ErrNoGenerator) {
		t.Fatalf("expected missing generator error, got %v", run.err)
	}
}

func TestCopyWithoutClipboardFails(t *testing.T) {
	t.Parallel()

	workingDirectory := t.TempDir()
	app := &application{options: &rootOptions{}, dependencies: dependencies{workingDirectory: workingDirectory}}
	command := createRootCommand(app.dependencies)
	command.SetOut(&bytes.Buffer{})
	copyErr := app.emitOutput(command, "content", true)
	if !errors.Is(copyErr, clipboard.ErrUnavailable) {
		t.Fatalf("expected clipboard unavailable error, got %v", copyErr)
	}
}

func TestInitCommand(t *testing.T) {
	t.Parallel()

	workingDirectory := t.TempDir()
	deps := dependencies{workingDirectory: workingDirectory}
	expectedPath := filepath.Join(workingDirectory, config.LocalConfigFileName)

	first := runRootCommand(deps, "init")
	if first.err != nil {
		t.Fatalf("init error: %v", first.err)
	}
	if !strings.Contains(first.stdout, expectedPath) {
		t.Fatalf("expected path in output, got %q", first.stdout)
	}
	if _, statErr := os.Stat(expectedPath); statErr != nil {
		t.Fatalf("configuration not written: %v", statErr)
	}

	second := runRootCommand(deps, "init")
	if second.err == nil || !strings.Contains(second.err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", second.err)
	}

	forced := runRootCommand(deps, "init", "--force")
	if forced.err != nil {
		t.Fatalf("forced init error: %v", forced.err)
	}
}

type lockedBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (locked *lockedBuffer) Write(data []byte) (int, error) {
	locked.mutex.Lock()
	defer locked.mutex.Unlock()
	return locked.buffer.Write(data)
}

func (locked *lockedBuffer) String() string {
	locked.mutex.Lock()
	defer locked.mutex.Unlock()
	return locked.buffer.String()
}

func waitForAPIAddress(t *testing.T, buffer *lockedBuffer) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range strings.Split(buffer.String(), "\n") {
			if strings.HasPrefix(line, listeningMessage) {
				return strings.TrimPrefix(line, listeningMessage)
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server address not reported: %s", buffer.String())
	return ""
}

func TestStartAPIServerServesCommandsAndMetrics(t *testing.T) {
	t.Parallel()

	notionServer := newHandbookNotion(t)
	environment, environmentErr := commands.NewEnvironment(config.ApplicationConfiguration{
		Notion: config.NotionConfiguration{APIBase: notionServer.URL},
	}, nil)
	if environmentErr != nil {
		t.Fatalf("NewEnvironment error: %v", environmentErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var buffer lockedBuffer
	done := make(chan error, 1)
	go func() {
		done <- startAPIServer(ctx, environment, "127.0.0.1:0", &buffer)
	}()
	address := waitForAPIAddress(t, &buffer)

	client := notionServer.Client()
	extractBody := strings.NewReader(`{"completion":"{\"files\":{\"README.md\":\"# Demo\\n\"}}"}`)
	extractResponse, extractErr := client.Post("http://"+address+"/commands/extract", "application/json", extractBody)
	if extractErr != nil {
		t.Fatalf("extract request: %v", extractErr)
	}
	extractResponse.Body.Close()
	if extractResponse.StatusCode != 200 {
		t.Fatalf("unexpected extract status %d", extractResponse.StatusCode)
	}

	metricsResponse, metricsErr := client.Get("http://" + address + "/metrics")
	if metricsErr != nil {
		t.Fatalf("metrics request: %v", metricsErr)
	}
	var metricsBody bytes.Buffer
	_, _ = metricsBody.ReadFrom(metricsResponse.Body)
	metricsResponse.Body.Close()
	for _, expected := range []string{
		`pagegen_command_requests_total{command="extract",status="200"} 1`,
		`pagegen_extractions_total{extracted="true",strategy="direct_json"} 1`,
	} {
		if !strings.Contains(metricsBody.String(), expected) {
			t.Fatalf("expected %q in metrics:\n%s", expected, metricsBody.String())
		}
	}

	cancel()
	select {
	case runErr := <-done:
		if runErr != nil {
			t.Fatalf("server error: %v", runErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
