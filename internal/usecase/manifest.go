package usecase

import "strings"

// BuildManifest renders the text listing of everything packed into a
// bag (§6: generated for every bag, dry or live, and uploaded on live
// runs). One line per bag item, branch-relative.
func BuildManifest(branch string, bagID int, items []BagItem) string {
	var sb strings.Builder
	sb.WriteString(branch)
	sb.WriteString(" ")
	sb.WriteString(BagName(bagID))
	sb.WriteString("\n")
	for _, item := range items {
		switch {
		case item.ArtifactPath != "":
			sb.WriteString(item.InnerName)
			sb.WriteString("\n")
		case item.PlainRootFiles != nil:
			for _, name := range item.PlainRootFiles {
				sb.WriteString(name)
				sb.WriteString("\n")
			}
		default:
			sb.WriteString(item.InnerPrefix)
			sb.WriteString("/\n")
		}
	}
	return sb.String()
}

// ManifestFilename renders the local staging filename for a bag's
// manifest (distinct from its S3 object key, §6).
func ManifestFilename(bagID int, timestamp string, run bool) string {
	mode := "dryrun"
	if run {
		mode = "liverun"
	}
	return timestamp + "_" + BagName(bagID) + "_" + mode + ".txt"
}
