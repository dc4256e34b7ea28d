package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectDirection(t *testing.T) {
	rtl := map[Subject]bool{UrduA: true, UrduB: true, Islamiat: true}
	for _, s := range Subjects() {
		want := LeftToRight
		if rtl[s] {
			want = RightToLeft
		}
		assert.Equal(t, want, s.Direction(), string(s))
	}
}

func TestParseSubject(t *testing.T) {
	s, err := ParseSubject("Social Studies")
	require.NoError(t, err)
	assert.Equal(t, SocialStudies, s)

	_, err = ParseSubject("islamiat")
	assert.Error(t, err)
}

func TestParseGrade_TrimsSpace(t *testing.T) {
	g, err := ParseGrade(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, MaxGrade, g)
}

func TestDownloadName_KeepsSubjectSpelling(t *testing.T) {
	assert.Equal(t, "Social Studies_Paper_Class_7_KPK.pdf", DownloadName(SocialStudies, 7, "KPK"))
}

func TestDocumentLines(t *testing.T) {
	assert.Empty(t, NewDocument("", LeftToRight).Lines())
	assert.Equal(t, []string{"a", "", "b"}, NewDocument("a\r\n\nb", LeftToRight).Lines())
	assert.Equal(t, []string{"a", ""}, NewDocument("a\n", RightToLeft).Lines())
	assert.Equal(t, "rtl", RightToLeft.String())
}
