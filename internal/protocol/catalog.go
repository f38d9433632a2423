// Package protocol turns DICOM header dump text into a filled-in
// acquisition-protocol summary. It parses the flat bracketed text an
// external dump tool emits, derives the handful of values the tool
// does not report directly, and substitutes everything into a static
// summary template.
package protocol

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagDefinition pairs a dump-tool search code ("gggg,eeee") with the
// human-readable name used as a key in TagValues and in the summary
// template.
type TagDefinition struct {
	Code string
	Name string
}

// codeOf renders a standard tag as the lowercase gggg,eeee form the
// dump tool's --search option expects.
func codeOf(t tag.Tag) string {
	return fmt.Sprintf("%04x,%04x", t.Group, t.Element)
}

// Catalog is the ordered list of standard tags requested on every
// header dump. Codes and names are both unique; the order matches the
// narrative order of the summary template.
var Catalog = []TagDefinition{
	{codeOf(tag.ProtocolName), "ProtocolName"},
	{codeOf(tag.ScanningSequence), "ScanningSequence"},
	{codeOf(tag.SequenceName), "SequenceName"},
	{codeOf(tag.MagneticFieldStrength), "MagneticFieldStrength"},
	{codeOf(tag.RepetitionTime), "RepetitionTime"},
	{codeOf(tag.EchoTime), "EchoTime"},
	{codeOf(tag.FlipAngle), "FlipAngle"},
	{codeOf(tag.SliceThickness), "SliceThickness"},
	{codeOf(tag.SpacingBetweenSlices), "SpacingBetweenSlices"},
	{codeOf(tag.PixelSpacing), "PixelSpacing"},
	{codeOf(tag.AcquisitionMatrix), "AcquisitionMatrix"},
	{codeOf(tag.NumberOfPhaseEncodingSteps), "NumberOfPhaseEncodingSteps"},
	{codeOf(tag.EchoTrainLength), "EchoTrainLength"},
	{codeOf(tag.InPlanePhaseEncodingDirection), "InPlanePhaseEncodingDirection"},
}

// Siemens private tags, each dumped with its own scoped invocation.
// MosaicRefAcqTimes carries the per-slice acquisition timestamps that
// the slice-derived inferences run on; PATModeText is carried into
// the map verbatim when present.
const (
	MosaicRefAcqTimesCode = "0019,1029"
	PATModeTextCode       = "0051,1011"

	PATModeTextName = "PATModeText"
)

// Names of the values enrichment derives and appends to the parsed
// map. PhaseEncodingDirection is a substring of the base key
// InPlanePhaseEncodingDirection; the renderer resolves the overlap by
// matching longer keys first.
const (
	KeyNumberOfSlices    = "NumberOfSlices"
	KeySliceOrder        = "SliceOrder"
	KeySliceGap          = "SliceGap"
	KeyMultibandFactor   = "MultibandAccelerationFactor"
	KeyParallelFactor    = "ParallelAccelerationFactor"
	KeyPEDirection       = "PhaseEncodingDirection"
	KeyInPlaneResolution = "InPlaneResolution"
	KeyMatrixSize        = "MatrixSize"
	KeyNumberOfVolumes   = "NumberOfVolumes"
)

// SummaryTemplate is the static protocol description. Every
// placeholder is either a Catalog name or a derived-value key.
const SummaryTemplate = `Protocol: ProtocolName (ScanningSequence SequenceName), acquired at MagneticFieldStrength T.
TR = RepetitionTime ms, TE = EchoTime ms, flip angle = FlipAngle deg.
NumberOfSlices slices in SliceOrder order, SliceThickness mm thick with a SliceGap mm gap, multiband factor MultibandAccelerationFactor.
In-plane: InPlaneResolution mm resolution, matrix size MatrixSize, acceleration factor ParallelAccelerationFactor, phase encoding along PhaseEncodingDirection.
NumberOfVolumes volumes on disk.`

// CatalogCodes returns the search codes of every catalog entry, in
// catalog order.
func CatalogCodes() []string {
	codes := make([]string, len(Catalog))
	for i, def := range Catalog {
		codes[i] = def.Code
	}
	return codes
}

// tagCodePattern matches a bare gggg,eeee tag code.
var tagCodePattern = regexp.MustCompile(`^[0-9a-fA-F]{4},[0-9a-fA-F]{4}$`)

// FindTag resolves a tag name or a gggg,eeee code to a catalog entry.
// Name lookup is case-insensitive. A code that is not in the catalog
// is accepted as-is with an empty name, so private tags stay
// searchable. An unknown name returns an error with a suggestion for
// the closest catalog name.
func FindTag(nameOrCode string) (TagDefinition, error) {
	s := strings.TrimSpace(nameOrCode)

	if tagCodePattern.MatchString(s) {
		code := strings.ToLower(s)
		for _, def := range Catalog {
			if def.Code == code {
				return def, nil
			}
		}
		return TagDefinition{Code: code}, nil
	}

	lower := strings.ToLower(s)
	for _, def := range Catalog {
		if strings.ToLower(def.Name) == lower {
			return def, nil
		}
	}

	if suggestion := closestTagName(lower); suggestion != "" {
		return TagDefinition{}, fmt.Errorf("unknown tag %q, did you mean %q?", nameOrCode, suggestion)
	}
	return TagDefinition{}, fmt.Errorf("unknown tag %q", nameOrCode)
}

// closestTagName finds the closest catalog name using Levenshtein
// distance. Returns empty string if no close match is found
// (distance > 5).
func closestTagName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for _, def := range Catalog {
		distance := levenshteinDistance(input, strings.ToLower(def.Name))
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = def.Name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance calculates the minimum number of
// single-character edits (insertions, deletions, or substitutions)
// required to change one string into the other.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
