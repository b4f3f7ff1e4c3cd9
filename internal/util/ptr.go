package util

func StringPtr(v string) *string { return &v }

// NonEmpty returns nil for the empty string, the absent marker used by the cleaner.
func NonEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
