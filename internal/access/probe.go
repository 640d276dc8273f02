package access

// EntryType is the coarse type reported by Probe.
type EntryType string

const (
	TypeFile EntryType = "file"
	TypeDir  EntryType = "dir"
	TypeNone EntryType = "none"
)

// ProbeResult answers whether a path exists and what it is.
type ProbeResult struct {
	Converted string    `json:"converted"`
	Exists    bool      `json:"exists"`
	Type      EntryType `json:"type"`
	Allowed   bool      `json:"allowed"`
}

// Probe reports existence and type for paths inside the allowlist. For any
// path outside it the result is the same whether or not the path exists:
// only the normalized input is echoed back.
func (v *Validator) Probe(raw string) ProbeResult {
	pol := v.policy.Current()
	normalized := NewNormalizer(pol.conversion).Normalize(raw)
	result := ProbeResult{Converted: normalized, Type: TypeNone}

	target, err := v.resolveForRead(pol, "probe", raw)
	if err != nil {
		if KindOf(err) != KindDenied {
			result.Allowed = true
		}
		return result
	}

	info, err := v.fs.Lstat(target.Path)
	result.Allowed = true
	if err != nil {
		return result
	}

	result.Exists = true
	result.Type = TypeFile
	if info.IsDir() {
		result.Type = TypeDir
	}
	return result
}
