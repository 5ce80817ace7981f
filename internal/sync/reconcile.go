package sync

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/provider"
)

// OpType identifies the transfer direction decided for one item.
type OpType string

const (
	OpUpload   OpType = "upload"
	OpDownload OpType = "download"
	OpSkip     OpType = "skip"
)

// Plan is the outcome of classifying one content class: which items move
// where, and which stay put.
type Plan struct {
	Uploads   []content.Item
	Downloads []provider.RemoteItem
	Skipped   []string
	Excluded  []string
}

// TransferCount returns how many network transfers the plan requires.
func (p *Plan) TransferCount() int {
	return len(p.Uploads) + len(p.Downloads)
}

// HasChanges reports whether any transfer is required.
func (p *Plan) HasChanges() bool {
	return p.TransferCount() > 0
}

// Reconcile diffs the local collection against the remote listing by
// name and lastModified:
//
//   - present in both, local strictly newer  -> upload
//   - present in both, remote strictly newer -> download
//   - present in both, equal timestamps      -> skip (never transfer)
//   - present only locally                   -> upload
//   - present only remotely                  -> download
//
// Names matching the exclude list are set aside before classification
// and reported in Plan.Excluded.
func Reconcile(local content.Collection, remote []provider.RemoteItem, exclude *ExcludeList) *Plan {
	localByName := local.ByName()
	remoteByName := make(map[string]provider.RemoteItem, len(remote))
	for _, r := range remote {
		remoteByName[r.Name] = r
	}

	names := mapset.NewThreadUnsafeSet[string]()
	for name := range localByName {
		names.Add(name)
	}
	for name := range remoteByName {
		names.Add(name)
	}

	ordered := names.ToSlice()
	sort.Strings(ordered)

	plan := &Plan{}
	for _, name := range ordered {
		if exclude.Match(name) {
			plan.Excluded = append(plan.Excluded, name)
			continue
		}

		l, lok := localByName[name]
		r, rok := remoteByName[name]

		switch {
		case lok && rok:
			switch {
			case l.LastModified > r.LastModified:
				plan.Uploads = append(plan.Uploads, l)
			case r.LastModified > l.LastModified:
				plan.Downloads = append(plan.Downloads, r)
			default:
				plan.Skipped = append(plan.Skipped, name)
			}
		case lok:
			plan.Uploads = append(plan.Uploads, l)
		case rok:
			plan.Downloads = append(plan.Downloads, r)
		}
	}

	return plan
}
