package manifest

import "fmt"

// Severity classifies a single check outcome.
type Severity int

const (
	Pass Severity = iota
	Warn
	Fail
)

// String returns the severity label used in summaries.
func (s Severity) String() string {
	switch s {
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "PASS"
	}
}

// Symbol returns the console marker for this severity.
func (s Severity) Symbol() string {
	switch s {
	case Warn:
		return "⚠"
	case Fail:
		return "✗"
	default:
		return "✓"
	}
}

// Result is the outcome of one check against one file.
type Result struct {
	Check    string
	Severity Severity
	Detail   string
}

// FileReport collects all check results for a single manifest file.
type FileReport struct {
	Path    string
	Results []Result
}

func (f *FileReport) add(check string, sev Severity, format string, args ...interface{}) {
	f.Results = append(f.Results, Result{
		Check:    check,
		Severity: sev,
		Detail:   fmt.Sprintf(format, args...),
	})
}

// Report aggregates check results across all scanned files.
type Report struct {
	Files []FileReport
}

// Counts returns the total number of pass, warn and fail results.
func (r *Report) Counts() (pass, warn, fail int) {
	for _, f := range r.Files {
		for _, res := range f.Results {
			switch res.Severity {
			case Fail:
				fail++
			case Warn:
				warn++
			default:
				pass++
			}
		}
	}
	return pass, warn, fail
}

// HasFailures reports whether any fail-level check fired.
func (r *Report) HasFailures() bool {
	_, _, fail := r.Counts()
	return fail > 0
}

// HasWarnings reports whether any warn-level check fired.
func (r *Report) HasWarnings() bool {
	_, warn, _ := r.Counts()
	return warn > 0
}
