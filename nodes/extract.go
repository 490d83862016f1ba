package nodes

// Extract copies the listed fields from source into a new Values, the way
// form input is split across tables. With pop the copied keys are removed
// from source. With skipEmpty, nil and "" values are left out of the result;
// they are still removed from source when pop is set. Fields missing from
// source are ignored.
func Extract(source Values, fields []string, pop, skipEmpty bool) Values {
	out := Values{}
	for _, f := range fields {
		v, ok := source[f]
		if !ok {
			continue
		}
		if pop {
			delete(source, f)
		}
		if skipEmpty && isEmpty(v) {
			continue
		}
		out[f] = v
	}
	return out
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
