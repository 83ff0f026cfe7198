package prerender

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/litho/internal/linkcheck"
)

// stageVerifyLinks checks internal page links in the rendered documents
// against the prerendered URL set. Broken links warn, never abort.
func stageVerifyLinks(_ context.Context, st *RunState) error {
	problems, err := linkcheck.VerifyDocuments(st.documents(), st.Opts.BaseURL)
	if err != nil {
		return err
	}
	for _, p := range problems {
		st.Warner.Warnf("page %s links to %s, which is not part of the prerendered output", p.SourceURL, p.Target)
	}
	if len(problems) > 0 {
		return NewWarnStageError(StageVerifyLinks, fmt.Errorf("%d internal links do not resolve", len(problems)))
	}
	return nil
}
