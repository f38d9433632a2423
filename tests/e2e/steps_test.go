package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

// binaryPath holds the path to the compiled binary (set once in TestMain)
var binaryPath string

// catalogDump is the canned header text the stub dump tool prints for
// a multi-tag invocation.
const catalogDump = `ProtocolName [ep2d_bold] ScanningSequence [EP] SequenceName [epfid2d1_64] ` +
	`MagneticFieldStrength [3] RepetitionTime [2000] EchoTime [30] FlipAngle [90] ` +
	`SliceThickness [2.5] SpacingBetweenSlices [3] PixelSpacing [2\2] ` +
	`AcquisitionMatrix [64\0\0\64] NumberOfPhaseEncodingSteps [64] EchoTrainLength [32] ` +
	`InPlanePhaseEncodingDirection [COL]`

// testContext holds state for a single scenario
type testContext struct {
	tmpDir     string
	sourceDir  string
	configPath string
	exitCode   int
	stdout     string
	stderr     string
}

// buildBinary compiles the dicomsum binary once
func buildBinary() (string, error) {
	tmpFile, err := os.CreateTemp("", "dicomsum-test-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpFile.Close()

	// Get the directory of this test file to find the project root
	_, thisFile, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", tmpFile.Name(), "./cmd/dicomsum")
	cmd.Dir = projectRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build failed: %w\n%s", err, stderr.String())
	}

	return tmpFile.Name(), nil
}

// TestMain compiles the binary once before running all tests
func TestMain(m *testing.M) {
	var err error
	binaryPath, err = buildBinary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build binary: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(binaryPath)

	code := m.Run()
	os.Exit(code)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &testContext{}

	// Setup: create temp directory and stock tool stubs before each
	// scenario
	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "dicomsum-e2e-*")
		if err != nil {
			return ctx, err
		}
		tc.tmpDir = tmpDir
		tc.sourceDir = filepath.Join(tmpDir, "source")
		if err := os.Mkdir(tc.sourceDir, 0o755); err != nil {
			return ctx, err
		}
		if err := tc.writeDumpStub(catalogDump, 0); err != nil {
			return ctx, err
		}
		if err := tc.writeConvertStub("converted"); err != nil {
			return ctx, err
		}
		return ctx, tc.writeConfig()
	})

	// Teardown: cleanup temp directory after each scenario
	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.tmpDir != "" {
			os.RemoveAll(tc.tmpDir)
		}
		return ctx, nil
	})

	// Step definitions
	sc.Step(`^a dump tool that prints the standard header tags$`, tc.aStandardDumpTool)
	sc.Step(`^a dump tool that fails with "([^"]*)"$`, tc.aFailingDumpTool)
	sc.Step(`^a converter that prints "([^"]*)"$`, tc.aConverterThatPrints)
	sc.Step(`^a source directory with (\d+) "([^"]*)" files$`, tc.aSourceDirectoryWithFiles)
	sc.Step(`^I summarize a file in the source directory$`, tc.iSummarizeAFile)
	sc.Step(`^I search for tag "([^"]*)" in a file$`, tc.iSearchForTag)
	sc.Step(`^I count the volumes in the source directory$`, tc.iCountVolumes)
	sc.Step(`^I convert the source directory$`, tc.iConvert)
	sc.Step(`^the command succeeds$`, tc.theCommandSucceeds)
	sc.Step(`^the command fails$`, tc.theCommandFails)
	sc.Step(`^the output contains "([^"]*)"$`, tc.theOutputContains)
	sc.Step(`^the output is "([^"]*)"$`, tc.theOutputIs)
	sc.Step(`^the error output contains "([^"]*)"$`, tc.theErrorOutputContains)
	sc.Step(`^the output contains no unresolved placeholders$`, tc.noUnresolvedPlaceholders)
}

// writeDumpStub writes the stub dump tool. It prints the catalog text
// for multi-tag invocations and canned private-tag values for the
// single-tag ones, mimicking a dcmdump wrapper. A non-zero exitCode
// turns it into a failing tool that prints catalog as a diagnostic.
func (tc *testContext) writeDumpStub(catalog string, exitCode int) error {
	script := fmt.Sprintf(`#!/bin/sh
if [ %d -ne 0 ]; then
  echo "%s" >&2
  exit %d
fi
case "$2" in
0018,0080) echo 'RepetitionTime [2000]' ;;
0019,1029) printf '%%s\n' 'MosaicRefAcqTimes [0\500\1000\0\500\1000]' ;;
0051,1011) echo 'PATModeText [p2]' ;;
*) cat <<'EOF'
%s
EOF
;;
esac
`, exitCode, catalog, exitCode, catalog)
	return os.WriteFile(filepath.Join(tc.tmpDir, "dcmdump"), []byte(script), 0o755)
}

// writeConvertStub writes the stub converter.
func (tc *testContext) writeConvertStub(message string) error {
	script := fmt.Sprintf("#!/bin/sh\necho '%s'\n", message)
	return os.WriteFile(filepath.Join(tc.tmpDir, "dcm2niix"), []byte(script), 0o755)
}

// writeConfig points the binary at the stub tools.
func (tc *testContext) writeConfig() error {
	tc.configPath = filepath.Join(tc.tmpDir, "config.yaml")
	content := fmt.Sprintf("dcmdump: %s\ndcm2niix: %s\nextensions: [dcm, ima, IMA]\ntimeout: 30s\n",
		filepath.Join(tc.tmpDir, "dcmdump"),
		filepath.Join(tc.tmpDir, "dcm2niix"))
	return os.WriteFile(tc.configPath, []byte(content), 0o644)
}

func (tc *testContext) aStandardDumpTool() error {
	return tc.writeDumpStub(catalogDump, 0)
}

func (tc *testContext) aFailingDumpTool(message string) error {
	return tc.writeDumpStub(message, 1)
}

func (tc *testContext) aConverterThatPrints(message string) error {
	return tc.writeConvertStub(message)
}

func (tc *testContext) aSourceDirectoryWithFiles(count int, ext string) error {
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%06d.%s", i, ext)
		if err := os.WriteFile(filepath.Join(tc.sourceDir, name), []byte("x"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (tc *testContext) run(args ...string) error {
	args = append([]string{"-config", tc.configPath}, args...)
	cmd := exec.Command(binaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	tc.stdout = stdout.String()
	tc.stderr = stderr.String()

	if exitErr, ok := err.(*exec.ExitError); ok {
		tc.exitCode = exitErr.ExitCode()
	} else if err != nil {
		return fmt.Errorf("failed to run command: %w", err)
	} else {
		tc.exitCode = 0
	}

	return nil
}

func (tc *testContext) targetFile() string {
	return filepath.Join(tc.sourceDir, "000000.dcm")
}

func (tc *testContext) iSummarizeAFile() error {
	return tc.run(tc.targetFile())
}

func (tc *testContext) iSearchForTag(tag string) error {
	return tc.run("-search", tag, tc.targetFile())
}

func (tc *testContext) iCountVolumes() error {
	return tc.run("-volumes", tc.sourceDir)
}

func (tc *testContext) iConvert() error {
	return tc.run("-convert", tc.sourceDir)
}

func (tc *testContext) theCommandSucceeds() error {
	if tc.exitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d\nStderr:\n%s", tc.exitCode, tc.stderr)
	}
	return nil
}

func (tc *testContext) theCommandFails() error {
	if tc.exitCode == 0 {
		return fmt.Errorf("expected non-zero exit code\nStdout:\n%s", tc.stdout)
	}
	return nil
}

func (tc *testContext) theOutputContains(expected string) error {
	if !strings.Contains(tc.stdout, expected) {
		return fmt.Errorf("output does not contain %q\nOutput:\n%s", expected, tc.stdout)
	}
	return nil
}

func (tc *testContext) theOutputIs(expected string) error {
	if got := strings.TrimSpace(tc.stdout); got != expected {
		return fmt.Errorf("output is %q, want %q", got, expected)
	}
	return nil
}

func (tc *testContext) theErrorOutputContains(expected string) error {
	if !strings.Contains(tc.stderr, expected) {
		return fmt.Errorf("error output does not contain %q\nStderr:\n%s", expected, tc.stderr)
	}
	return nil
}

// noUnresolvedPlaceholders checks that no catalog or derived key name
// survived template rendering. The raw dump section legitimately
// carries tag names, so only the summary block above it is checked.
func (tc *testContext) noUnresolvedPlaceholders() error {
	summaryBlock := tc.stdout
	if idx := strings.Index(tc.stdout, "\n\n"); idx >= 0 {
		summaryBlock = tc.stdout[:idx]
	}

	placeholders := []string{
		"ProtocolName", "RepetitionTime", "EchoTime", "FlipAngle",
		"NumberOfSlices", "SliceOrder", "SliceGap",
		"MultibandAccelerationFactor", "ParallelAccelerationFactor",
		"PhaseEncodingDirection", "InPlaneResolution", "MatrixSize",
		"NumberOfVolumes",
	}
	for _, name := range placeholders {
		if strings.Contains(summaryBlock, name) {
			return fmt.Errorf("placeholder %q survived rendering:\n%s", name, summaryBlock)
		}
	}
	return nil
}
