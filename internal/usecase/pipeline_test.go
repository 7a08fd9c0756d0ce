package usecase

import "testing"

func TestVariantFor(t *testing.T) {
	tests := []struct {
		name   string
		branch Branch
		want   PipelineVariant
	}{
		{"plain", Branch{}, VariantPlain},
		{"compress only", Branch{Compress: true}, VariantCompress},
		{"encrypt only", Branch{Encrypt: true}, VariantEncrypt},
		{"both", Branch{Compress: true, Encrypt: true}, VariantCompressEncrypt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VariantFor(tt.branch); got != tt.want {
				t.Errorf("VariantFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogicalInnerName(t *testing.T) {
	tests := []struct {
		name         string
		rel          string
		isBranchRoot bool
		variant      PipelineVariant
		want         string
	}{
		{"plain subdir", "photos", false, VariantPlain, "photos"},
		{"compressed subdir", "photos", false, VariantCompress, "photos.tar.gz"},
		{"encrypted subdir", "photos", false, VariantEncrypt, "photos.gpg"},
		{"compressed+encrypted subdir", "photos", false, VariantCompressEncrypt, "photos.gz.gpg"},
		{"compressed branch root", "", true, VariantCompress, BranchRootSentinel + ".tar.gz"},
		{"encrypted branch root", "", true, VariantEncrypt, BranchRootSentinel + ".gpg"},
		{"both branch root", "", true, VariantCompressEncrypt, BranchRootSentinel + ".gz.gpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LogicalInnerName(tt.rel, tt.isBranchRoot, tt.variant); got != tt.want {
				t.Errorf("LogicalInnerName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInnerFilename(t *testing.T) {
	id := LeafID("/data/alpha/photos")
	tests := []struct {
		variant PipelineVariant
		want    string
	}{
		{VariantPlain, "bundle_" + id + ".tar"},
		{VariantCompress, "comp_" + id + ".tar.gz"},
		{VariantEncrypt, "enc_" + id + ".gpg"},
		{VariantCompressEncrypt, "enc_" + id + ".gz.gpg"},
	}
	for _, tt := range tests {
		if got := InnerFilename("/data/alpha/photos", tt.variant); got != tt.want {
			t.Errorf("InnerFilename(%v) = %q, want %q", tt.variant, got, tt.want)
		}
	}
}

func TestLeafID(t *testing.T) {
	id := LeafID("/data/alpha/photos")
	if len(id) != 8 {
		t.Errorf("LeafID length = %d, want 8", len(id))
	}
	if id != LeafID("/data/alpha/photos") {
		t.Error("LeafID must be deterministic")
	}
	if id == LeafID("/data/alpha/videos") {
		t.Error("distinct keys must produce distinct leaf ids")
	}
}

func TestIsBranchRootLeaf(t *testing.T) {
	if !IsBranchRootLeaf("/data/alpha/" + BranchRootSentinel) {
		t.Error("sentinel-suffixed key must be a branch-root leaf")
	}
	if IsBranchRootLeaf("/data/alpha/photos") {
		t.Error("plain key must not be a branch-root leaf")
	}
}
