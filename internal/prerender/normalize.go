package prerender

import (
	"strings"

	lerrors "git.home.luguber.info/inful/litho/internal/errors"
	"git.home.luguber.info/inful/litho/internal/site"
)

// NormalizeHookResult canonicalizes whatever a prerender hook returned into
// an ordered list of URL specs. Accepted shapes are a single URL string, a
// single record with a url field (and optionally pageContext), or a slice
// mixing both forms. Anything else is a usage error naming the hook's source
// file. The function is pure.
func NormalizeHookResult(raw any, sourceFile string) ([]site.URLSpec, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		spec, err := normalizeElement(v, sourceFile)
		if err != nil {
			return nil, err
		}
		return []site.URLSpec{spec}, nil
	case site.URLSpec:
		spec, err := normalizeElement(v, sourceFile)
		if err != nil {
			return nil, err
		}
		return []site.URLSpec{spec}, nil
	case map[string]any:
		spec, err := normalizeElement(v, sourceFile)
		if err != nil {
			return nil, err
		}
		return []site.URLSpec{spec}, nil
	case []string:
		specs := make([]site.URLSpec, 0, len(v))
		for _, el := range v {
			spec, err := normalizeElement(el, sourceFile)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	case []site.URLSpec:
		specs := make([]site.URLSpec, 0, len(v))
		for _, el := range v {
			spec, err := normalizeElement(el, sourceFile)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	case []map[string]any:
		specs := make([]site.URLSpec, 0, len(v))
		for _, el := range v {
			spec, err := normalizeElement(el, sourceFile)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	case []any:
		specs := make([]site.URLSpec, 0, len(v))
		for _, el := range v {
			spec, err := normalizeElement(el, sourceFile)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		return specs, nil
	default:
		return nil, lerrors.NewUsageError(
			"prerender hook of %s returned a value of type %T; it must return a URL string, a record with a url field, or a list of those",
			sourceFile, raw)
	}
}

func normalizeElement(el any, sourceFile string) (site.URLSpec, error) {
	switch v := el.(type) {
	case string:
		return validateSpec(site.URLSpec{URL: v}, sourceFile)
	case site.URLSpec:
		return validateSpec(v, sourceFile)
	case map[string]any:
		return decodeRecord(v, sourceFile)
	default:
		return site.URLSpec{}, lerrors.NewUsageError(
			"prerender hook of %s returned an element of type %T; each element must be a URL string or a record with a url field",
			sourceFile, el)
	}
}

func decodeRecord(rec map[string]any, sourceFile string) (site.URLSpec, error) {
	for key := range rec {
		if key != "url" && key != "pageContext" {
			return site.URLSpec{}, lerrors.NewUsageError(
				"prerender hook of %s returned a record with unrecognized key %q; only url and pageContext are allowed",
				sourceFile, key)
		}
	}
	rawURL, ok := rec["url"]
	if !ok {
		return site.URLSpec{}, lerrors.NewUsageError(
			"prerender hook of %s returned a record without a url field", sourceFile)
	}
	url, ok := rawURL.(string)
	if !ok {
		return site.URLSpec{}, lerrors.NewUsageError(
			"prerender hook of %s returned a record whose url is a %T, not a string", sourceFile, rawURL)
	}

	spec := site.URLSpec{URL: url}
	if rawCtx, present := rec["pageContext"]; present && rawCtx != nil {
		pageCtx, ok := rawCtx.(map[string]any)
		if !ok {
			return site.URLSpec{}, lerrors.NewUsageError(
				"prerender hook of %s returned a pageContext for %s that is a %T, not a key/value record",
				sourceFile, url, rawCtx)
		}
		spec.PageContext = pageCtx
	}
	return validateSpec(spec, sourceFile)
}

func validateSpec(spec site.URLSpec, sourceFile string) (site.URLSpec, error) {
	if !strings.HasPrefix(spec.URL, "/") {
		return site.URLSpec{}, lerrors.NewUsageError(
			"prerender hook of %s returned URL %q, which does not start with '/'", sourceFile, spec.URL)
	}
	return spec, nil
}

// NormalizeGlobalResult validates the return value of an onBeforePrerender
// hook. The only accepted shapes are nil, an empty record, or a record with
// the single key globalContext holding a key/value record; the contained
// record is returned as the delta to merge into the shared global context.
func NormalizeGlobalResult(raw any, sourceFile string) (map[string]any, error) {
	if raw == nil {
		return nil, nil
	}
	rec, ok := raw.(map[string]any)
	if !ok {
		return nil, lerrors.NewUsageError(
			"onBeforePrerender hook of %s returned a value of type %T; it must return nothing or a record of the shape {globalContext: <record>}",
			sourceFile, raw)
	}
	if len(rec) == 0 {
		return nil, nil
	}
	rawCtx, ok := rec["globalContext"]
	if !ok || len(rec) > 1 {
		return nil, lerrors.NewUsageError(
			"onBeforePrerender hook of %s must return a record with globalContext as its only key", sourceFile)
	}
	if rawCtx == nil {
		return nil, nil
	}
	delta, ok := rawCtx.(map[string]any)
	if !ok {
		return nil, lerrors.NewUsageError(
			"onBeforePrerender hook of %s returned a globalContext of type %T, not a key/value record", sourceFile, rawCtx)
	}
	return delta, nil
}
