package hl7

import "strconv"

// Prediction is one (label, score) pair produced by model inference.
type Prediction struct {
	Label string
	Score float64
}

// Artifact is a supplementary file produced during processing and embedded
// in the result message, e.g. a base64-encoded report or annotation project.
type Artifact struct {
	// Name identifies the artifact, e.g. "qupath-project".
	Name string
	// ContentType is the MIME type of the decoded content.
	ContentType string
	// Base64 holds the base64-encoded artifact content.
	Base64 string
}

// BuildResult builds the outbound laboratory result message (OUL^R21) for a
// processed order. Patient and specimen segments are carried over from the
// order so the receiving system can route the result; each prediction becomes
// one OBX observation segment, followed by one OBX per embedded artifact.
func BuildResult(order *Message, model string, preds []Prediction, artifacts []Artifact) *Message {
	res := &Message{}
	res.Append(buildMSH(order, "OUL^R21"))

	for _, name := range []string{"PID", "OBR"} {
		if seg, ok := order.Segment(name); ok {
			res.Append(seg)
		}
	}
	for _, spm := range order.Segments("SPM") {
		res.Append(spm)
	}

	seq := 1
	for _, p := range preds {
		res.Append(Segment{
			"OBX",
			strconv.Itoa(seq),
			"ST",
			model + componentSep + "prediction",
			"",
			p.Label + componentSep + strconv.FormatFloat(p.Score, 'f', 4, 64),
		})
		seq++
	}

	for _, a := range artifacts {
		res.Append(Segment{
			"OBX",
			strconv.Itoa(seq),
			"ED",
			a.Name,
			"",
			a.ContentType + componentSep + "Base64" + componentSep + a.Base64,
		})
		seq++
	}

	return res
}
