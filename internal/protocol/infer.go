package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSliceTimes extracts the per-slice acquisition timestamps from
// the raw dump of the mosaic acquisition-times tag. The value is a
// backslash-delimited multi-value string; an absent tag yields an
// empty list.
func ParseSliceTimes(raw string) ([]float64, error) {
	value := SearchValue(raw)
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, `\`)
	times := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, NewFormatError("MosaicRefAcqTimes", p, err)
		}
		times = append(times, f)
	}
	return times, nil
}

// SliceCount returns the number of slices in one volume.
func SliceCount(times []float64) int {
	return len(times)
}

// SliceOrder classifies the acquisition order of the slice
// timestamps: "ascending" when the list equals its ascending sort,
// "descending" for the descending sort, "interleaved" otherwise.
func SliceOrder(times []float64) string {
	ascending := true
	descending := true
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			ascending = false
		}
		if times[i] > times[i-1] {
			descending = false
		}
	}

	switch {
	case ascending:
		return "ascending"
	case descending:
		return "descending"
	default:
		return "interleaved"
	}
}

// MultibandFactor computes the simultaneous-multislice acceleration
// factor as the ratio of total timestamps to distinct timestamps.
// Slices excited together share a timestamp, so an unaccelerated
// acquisition yields 1.
func MultibandFactor(times []float64) (int, error) {
	distinct := make(map[float64]struct{}, len(times))
	for _, t := range times {
		distinct[t] = struct{}{}
	}
	if len(distinct) == 0 {
		return 0, NewDivisionByZeroError("multiband acceleration factor")
	}
	return len(times) / len(distinct), nil
}

// ParallelFactor computes the in-plane (parallel imaging)
// acceleration factor as phase-encoding steps over echo train length,
// with truncating integer division.
func ParallelFactor(peSteps, echoTrainLength int) (int, error) {
	if echoTrainLength == 0 {
		return 0, NewDivisionByZeroError("parallel acceleration factor")
	}
	return peSteps / echoTrainLength, nil
}

// PartialFourierFactor computes the partial-Fourier factor as
// phase-encoding steps over the phase-encoding matrix size, with
// truncating integer division.
//
// Available for callers but not wired into Enrich or the summary
// template: the original pipeline defined the computation without
// ever rendering it, and that behavior is preserved.
func PartialFourierFactor(peSteps, peMatrixSize int) (int, error) {
	if peMatrixSize == 0 {
		return 0, NewDivisionByZeroError("partial Fourier factor")
	}
	return peSteps / peMatrixSize, nil
}

// SliceGap computes the inter-slice gap in mm as spacing minus
// thickness, truncated (not rounded) to two decimal places.
func SliceGap(spacing, thickness float64) float64 {
	return math.Trunc((spacing-thickness)*100) / 100
}

// PhaseEncodingDirection maps the DICOM in-plane phase-encoding
// direction onto the anatomical axis label shown in the summary.
// Unknown values map to the empty string.
func PhaseEncodingDirection(v string) string {
	switch v {
	case "COL":
		return "A-P"
	case "ROW":
		return "R-L"
	default:
		return ""
	}
}

// InPlaneResolution renders a two-component backslash-delimited pixel
// spacing value "a\b" as "axb".
func InPlaneResolution(v string) (string, error) {
	parts := strings.Split(v, `\`)
	if len(parts) != 2 {
		return "", NewFormatError("PixelSpacing", v, fmt.Errorf("want 2 components, got %d", len(parts)))
	}
	return parts[0] + "x" + parts[1], nil
}

// MatrixSize renders a multi-component backslash-delimited
// acquisition matrix value as "<first>x<last>". The middle components
// belong to whichever of the frequency/phase row-column pairs went
// unused and are zero in practice.
func MatrixSize(v string) (string, error) {
	parts := strings.Split(v, `\`)
	if len(parts) < 2 {
		return "", NewFormatError("AcquisitionMatrix", v, fmt.Errorf("want at least 2 components, got %d", len(parts)))
	}
	return parts[0] + "x" + parts[len(parts)-1], nil
}

// Enrichment carries the auxiliary inputs enrichment needs beyond the
// parsed base map.
type Enrichment struct {
	// Times holds the slice timestamps parsed from the mosaic
	// acquisition-times tag.
	Times []float64
	// Volumes is the number of DICOM files found in the source
	// directory.
	Volumes int
	// PATMode is the raw parallel-acquisition mode text, kept
	// verbatim when the scanner wrote it.
	PATMode string
}

// Enrich builds a new TagValues holding every base entry followed by
// the derived entries, in one pass. The base map is not modified.
// Every catalog name must be present in base; a gap means the dump
// tool returned no value for a tag the summary needs, and surfaces as
// a MissingTagError rather than a default. Numeric parse failures
// surface as FormatError and degenerate ratios as
// DivisionByZeroError; any of these aborts enrichment.
func Enrich(base *TagValues, in Enrichment) (*TagValues, error) {
	for _, def := range Catalog {
		if _, ok := base.Get(def.Name); !ok {
			return nil, NewMissingTagError(def.Name)
		}
	}

	peSteps, err := intValue(base, "NumberOfPhaseEncodingSteps")
	if err != nil {
		return nil, err
	}
	echoTrain, err := intValue(base, "EchoTrainLength")
	if err != nil {
		return nil, err
	}
	thickness, err := floatValue(base, "SliceThickness")
	if err != nil {
		return nil, err
	}
	spacing, err := floatValue(base, "SpacingBetweenSlices")
	if err != nil {
		return nil, err
	}

	parallel, err := ParallelFactor(peSteps, echoTrain)
	if err != nil {
		return nil, err
	}
	multiband, err := MultibandFactor(in.Times)
	if err != nil {
		return nil, err
	}

	pixelSpacing, _ := base.Get("PixelSpacing")
	resolution, err := InPlaneResolution(pixelSpacing)
	if err != nil {
		return nil, err
	}
	acqMatrix, _ := base.Get("AcquisitionMatrix")
	matrix, err := MatrixSize(acqMatrix)
	if err != nil {
		return nil, err
	}

	peDir, _ := base.Get("InPlanePhaseEncodingDirection")

	enriched := base.Clone()
	enriched.Set(KeyNumberOfSlices, strconv.Itoa(SliceCount(in.Times)))
	enriched.Set(KeySliceOrder, SliceOrder(in.Times))
	enriched.Set(KeySliceGap, strconv.FormatFloat(SliceGap(spacing, thickness), 'f', 2, 64))
	enriched.Set(KeyMultibandFactor, strconv.Itoa(multiband))
	enriched.Set(KeyParallelFactor, strconv.Itoa(parallel))
	enriched.Set(KeyPEDirection, PhaseEncodingDirection(peDir))
	enriched.Set(KeyInPlaneResolution, resolution)
	enriched.Set(KeyMatrixSize, matrix)
	enriched.Set(KeyNumberOfVolumes, strconv.Itoa(in.Volumes))
	if in.PATMode != "" {
		enriched.Set(PATModeTextName, in.PATMode)
	}
	return enriched, nil
}

// intValue reads a base tag and parses it as an integer.
func intValue(tv *TagValues, name string) (int, error) {
	raw, ok := tv.Get(name)
	if !ok {
		return 0, NewMissingTagError(name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, NewFormatError(name, raw, err)
	}
	return n, nil
}

// floatValue reads a base tag and parses it as a float.
func floatValue(tv *TagValues, name string) (float64, error) {
	raw, ok := tv.Get(name)
	if !ok {
		return 0, NewMissingTagError(name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, NewFormatError(name, raw, err)
	}
	return f, nil
}
