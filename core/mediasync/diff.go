package mediasync

import "sort"

// ComputeDiff compares the desired gallery against the remote one and returns
// the minimal plan to converge them. desired order is authoritative: the
// ordinal index after sorting by Position is the position every image should
// end up at.
//
// Partitioning is keyed on the local identifier: desired items with no remote
// counterpart go to ToUpload, remote images with no desired counterpart (or
// no back-reference at all) go to ToDelete, the rest is Unchanged. An item
// can never land in both ToUpload and ToDelete.
func ComputeDiff(desired []Item, current []RemoteImage) Diff {
	ordered := make([]Item, len(desired))
	copy(ordered, desired)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	// First remote image per local ID is the canonical mapping; duplicate
	// back-references behind it count as foreign.
	remoteByLocal := make(map[int64]RemoteImage, len(current))
	for _, img := range current {
		if img.LocalID == nil {
			continue
		}
		if _, taken := remoteByLocal[*img.LocalID]; taken {
			continue
		}
		remoteByLocal[*img.LocalID] = img
	}

	diff := Diff{PositionUpdates: make(map[string]int)}

	desiredIDs := make(map[int64]bool, len(ordered))
	for ordinal, item := range ordered {
		desiredIDs[item.ID] = true
		remote, mapped := remoteByLocal[item.ID]
		if !mapped {
			diff.ToUpload = append(diff.ToUpload, item)
			continue
		}
		diff.Unchanged = append(diff.Unchanged, item)
		if remote.Position != ordinal {
			diff.PositionUpdates[remote.ExternalID] = ordinal
		}
	}
	diff.OrderChanged = len(diff.PositionUpdates) > 0

	for _, img := range current {
		if img.LocalID == nil || !desiredIDs[*img.LocalID] {
			diff.ToDelete = append(diff.ToDelete, img)
			continue
		}
		if canonical := remoteByLocal[*img.LocalID]; canonical.ExternalID != img.ExternalID {
			diff.ToDelete = append(diff.ToDelete, img)
		}
	}

	applyCover(&diff, ordered, remoteByLocal)
	return diff
}

// applyCover detects a cover pointer move. The desired cover's canonical
// remote mapping must carry the cover flag; when the desired cover still
// needs an upload the external ID stays empty and the caller sequences
// upload before the pointer update.
func applyCover(diff *Diff, desired []Item, remoteByLocal map[int64]RemoteImage) {
	var cover *Item
	for i := range desired {
		if desired[i].IsCover {
			cover = &desired[i]
			break
		}
	}
	if cover == nil {
		return
	}

	if remote, mapped := remoteByLocal[cover.ID]; mapped && remote.IsCover {
		return
	}

	diff.CoverChanged = true
	if remote, mapped := remoteByLocal[cover.ID]; mapped {
		diff.NewCoverExternalID = remote.ExternalID
	}
}
