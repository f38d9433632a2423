package protocol

import (
	"context"
	"fmt"
)

// Dumper is the narrow collaborator interface over the external
// header dump tool. Implementations invoke the tool scoped to exactly
// the given tag codes and return its raw text output.
type Dumper interface {
	Dump(ctx context.Context, codes []string, path string) (string, error)
}

// Summary is the result of one header extraction: the rendered
// protocol description and the raw dump text it was derived from.
type Summary struct {
	Protocol string
	RawDump  string
}

// String renders the display block: the filled-in protocol summary
// followed by the raw dump text.
func (s Summary) String() string {
	return s.Protocol + "\n\n" + s.RawDump
}

// BuildSummary runs the full pipeline against one DICOM file: dump
// the catalog tags, parse them, dump the two private Siemens tags
// with their own scoped invocations, derive the inferred values and
// render the summary template. volumes is the DICOM file count of the
// source directory, supplied by the caller.
//
// Any error from the dump tool, a missing base tag, a malformed
// numeric value or a degenerate ratio aborts the build; no partially
// substituted summary is ever returned.
func BuildSummary(ctx context.Context, d Dumper, path string, volumes int) (Summary, error) {
	raw, err := d.Dump(ctx, CatalogCodes(), path)
	if err != nil {
		return Summary{}, fmt.Errorf("dumping header tags: %w", err)
	}
	base := ParseDump(raw)

	timesRaw, err := d.Dump(ctx, []string{MosaicRefAcqTimesCode}, path)
	if err != nil {
		return Summary{}, fmt.Errorf("dumping slice acquisition times: %w", err)
	}
	times, err := ParseSliceTimes(timesRaw)
	if err != nil {
		return Summary{}, err
	}

	// The PAT mode tag is only present on accelerated Siemens scans;
	// a failed or empty dump is not an error.
	var patMode string
	if patRaw, err := d.Dump(ctx, []string{PATModeTextCode}, path); err == nil {
		patMode = SearchValue(patRaw)
	}

	enriched, err := Enrich(base, Enrichment{
		Times:   times,
		Volumes: volumes,
		PATMode: patMode,
	})
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Protocol: Render(SummaryTemplate, enriched),
		RawDump:  raw,
	}, nil
}

// SearchTag dumps a single tag, resolved from a name or gggg,eeee
// code, and returns its value. The empty string means the file does
// not carry the tag.
func SearchTag(ctx context.Context, d Dumper, nameOrCode, path string) (string, error) {
	def, err := FindTag(nameOrCode)
	if err != nil {
		return "", err
	}
	raw, err := d.Dump(ctx, []string{def.Code}, path)
	if err != nil {
		return "", fmt.Errorf("dumping tag %s: %w", def.Code, err)
	}
	return SearchValue(raw), nil
}
