package wire

// ChoiceRecord is the saved form of a choice presented to the player.
type ChoiceRecord struct {
	Text                string
	Index               int
	OriginalChoicePath  string // path of the choice point which generated the choice
	OriginalThreadIndex int
	TargetPath          string
}

// Token creates the token of a choice.
func (cr ChoiceRecord) Token() Dict {
	return Dict{
		{"text", cr.Text},
		{"index", cr.Index},
		{"originalChoicePath", cr.OriginalChoicePath},
		{"originalThreadIndex", cr.OriginalThreadIndex},
		{"targetPath", cr.TargetPath},
	}
}

// ChoiceFromToken reads a choice token.
func ChoiceFromToken(tok interface{}) (ChoiceRecord, error) {
	obj, ok := tok.(map[string]interface{})
	if !ok {
		return ChoiceRecord{}, malformed("choice token is not an object: %v", tok)
	}
	var cr ChoiceRecord
	cr.Text, _ = String(obj["text"])
	cr.Index, _ = Int(obj["index"])
	cr.OriginalChoicePath, _ = String(obj["originalChoicePath"])
	cr.OriginalThreadIndex, _ = Int(obj["originalThreadIndex"])
	cr.TargetPath, ok = String(obj["targetPath"])
	if !ok {
		return ChoiceRecord{}, malformed("choice token without target path: %v", tok)
	}
	return cr, nil
}
