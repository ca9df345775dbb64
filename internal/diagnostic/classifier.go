package diagnostic

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// lineRe matches the clang-style grammar <path>:<line>:<column>: <severity>: <message>.
var lineRe = regexp.MustCompile(`^(.+?):(\d+):(\d+):\s*([A-Za-z-]+):\s*(.*)$`)

// Classification is the structured result of classifying one process's output.
type Classification struct {
	Diagnostics []Diagnostic
	// ConfigFailed is set when either toolchain-missing signature was seen;
	// the whole process result counts as a configuration failure.
	ConfigFailed bool
}

// Classify parses one process result's combined output text into diagnostics,
// one per recognized line, preserving line order. Lines that match no known
// grammar are downgraded to info diagnostics, never dropped and never fatal.
func Classify(output string) Classification {
	var c Classification

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.Diagnostics = append(c.Diagnostics, classifyLine(line, &c.ConfigFailed))
	}
	return c
}

func classifyLine(line string, configFailed *bool) Diagnostic {
	if strings.Contains(line, SignatureCompilerMissing) || strings.Contains(line, SignatureLinterMissing) {
		*configFailed = true
		return Diagnostic{
			Severity: SeverityConfig,
			Message:  RemediationText,
			Origin:   Origin,
		}
	}

	if m := lineRe.FindStringSubmatch(line); m != nil {
		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])
		return Diagnostic{
			Severity: mapSeverity(m[4]),
			File:     m[1],
			Line:     lineNo,
			Column:   colNo,
			Message:  m[5],
			Origin:   Origin,
		}
	}

	// Unrecognized grammar: keep the line verbatim as an info diagnostic.
	return Diagnostic{
		Severity: SeverityInfo,
		Message:  line,
		Origin:   Origin,
	}
}

func mapSeverity(token string) Severity {
	switch strings.ToLower(token) {
	case "error", "fatal-error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
