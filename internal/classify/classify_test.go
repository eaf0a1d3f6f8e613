package classify

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const centro = "PVR Centro Mall"

func TestClassifyBookable(t *testing.T) {
	page := TextPage("... coolie now showing at PVR Centro Mall, Screen 3, Book Now, 6:45 PM, 9:30 PM ...")
	res := Classify(page, []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, StatusOpen, m.Status)
	assert.Equal(t, centro, m.Name)
	assert.True(t, m.Evidence.Exact)
	assert.True(t, m.Evidence.Strong)
	assert.True(t, m.Evidence.ScreenLabel)
	assert.Equal(t, []string{"6:45 pm", "9:30 pm"}, m.Evidence.Showtimes)

	assert.True(t, res.SubjectFound)
	assert.True(t, res.Bookable)
	assert.Equal(t, []string{"6:45 pm", "9:30 pm"}, res.Showtimes)
}

func TestClassifyReleasingSoonNeverOpen(t *testing.T) {
	res := Classify(TextPage("Coolie releasing soon at PVR Centro Mall. Notify Me."), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	assert.NotEqual(t, StatusOpen, res.Matches[0].Status)
	assert.False(t, res.Bookable)
	assert.Empty(t, res.Showtimes)
}

func TestClassifySubjectMissing(t *testing.T) {
	res := Classify(TextPage("Now showing at PVR Centro Mall: 6:45 PM, 7:30 PM, 9:00 PM. Book Now"), []string{centro}, "coolie")

	assert.False(t, res.SubjectFound)
	assert.False(t, res.Bookable)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, StatusMentioned, res.Matches[0].Status)
	assert.Empty(t, res.Matches[0].Evidence.Schedule)
}

func TestClassifyRunOnText(t *testing.T) {
	res := Classify(TextPage("CoolieTamil PVR Centro Mall6:45PMScreen2 Book Now"), []string{centro}, "Coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, StatusOpen, m.Status)
	assert.True(t, m.Evidence.ScreenLabel)
	assert.Equal(t, []string{"6:45 pm"}, m.Evidence.Showtimes)
}

func TestClassifyWeakOnly(t *testing.T) {
	res := Classify(TextPage("Coolie at PVR Centro Mall. Book tickets, available soon."), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.True(t, m.Evidence.Weak)
	assert.False(t, m.Evidence.Strong)
	assert.Equal(t, StatusOpeningSoon, m.Status)
	assert.LessOrEqual(t, m.Status.Rank(), StatusOpeningSoon.Rank())
}

func TestClassifyStrongWithoutTimes(t *testing.T) {
	res := Classify(TextPage("Coolie at INOX Forum. Book now to be first in line."), []string{"INOX Forum"}, "coolie")

	require.Len(t, res.Matches, 1)
	assert.Equal(t, StatusOpeningSoon, res.Matches[0].Status)
	assert.False(t, res.Bookable)
}

func TestClassifyStrongWithScreenLabel(t *testing.T) {
	res := Classify(TextPage("Coolie. PVR Centro Mall Audi 4. Select seats"), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	assert.Equal(t, StatusOpen, res.Matches[0].Status)
	assert.True(t, res.Bookable)
	assert.Empty(t, res.Showtimes)
}

func TestClassifyScheduleFallback(t *testing.T) {
	text := "Coolie PVR Centro Mall Select Seats " + strings.Repeat("lorem ", 120) +
		"10:00 AM 1:15 PM 4:30 PM 7:45 PM"
	res := Classify(TextPage(text), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Empty(t, m.Evidence.Showtimes)
	assert.Equal(t, []string{"10:00 am", "1:15 pm", "4:30 pm", "7:45 pm"}, m.Evidence.Schedule)
	assert.Equal(t, StatusOpen, m.Status)
	assert.Equal(t, m.Evidence.Schedule, res.Showtimes)

	// no subject, no schedule
	res = Classify(TextPage(strings.Replace(text, "Coolie", "Other", 1)), []string{centro}, "coolie")
	require.Len(t, res.Matches, 1)
	assert.Empty(t, res.Matches[0].Evidence.Schedule)
	assert.Equal(t, StatusMentioned, res.Matches[0].Status)
}

func TestClassifyRepeatedShowtimeListedOnce(t *testing.T) {
	text := "Coolie PVR Centro Mall 6:45 PM 6:45 PM 6:45PM 6:45 pm 06:45 PM"
	res := Classify(TextPage(text), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	assert.Equal(t, []string{"6:45 pm"}, res.Matches[0].Evidence.Showtimes)
	assert.Equal(t, []string{"6:45 pm"}, res.Showtimes)
}

func TestClassifyShowtimesCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("Coolie PVR Centro Mall ")
	for h := 1; h <= 12; h++ {
		fmt.Fprintf(&b, "xx %d:30 pm ", h)
	}
	res := Classify(TextPage(b.String()), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	assert.Len(t, res.Matches[0].Evidence.Showtimes, 10)
	assert.Len(t, res.Showtimes, 10)
}

func TestClassifyBrandProximity(t *testing.T) {
	res := Classify(TextPage("Coolie showing at PVR - Centro, Bengaluru. Book now 7:00 PM"), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.False(t, m.Evidence.Exact)
	assert.True(t, m.Evidence.Proximity)
	assert.Equal(t, "pvr centro", m.Name)
	assert.Equal(t, StatusOpen, m.Status)
	assert.Equal(t, []string{"7:00 pm"}, m.Evidence.Showtimes)

	far := "Coolie at PVR " + strings.Repeat("filler ", 10) + "Centro"
	res = Classify(TextPage(far), []string{centro}, "coolie")
	assert.Empty(t, res.Matches)
}

func TestClassifyElementMatch(t *testing.T) {
	doc, err := ParseHTMLString(`<html><body><div class="cinema-card"><h3 class="cinema-name">PVR: Centro Mall (Koramangala)</h3></div></body></html>`)
	require.NoError(t, err)
	page := Page{Text: "Coolie. Select seats.", DOM: doc.DOM}

	res := Classify(page, []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.True(t, m.Evidence.HTML)
	assert.False(t, m.Evidence.Exact)
	assert.Equal(t, "PVR: Centro Mall (Koramangala)", m.Name)
	assert.True(t, m.Evidence.Strong)
	assert.Equal(t, StatusOpeningSoon, m.Status)
}

func TestClassifyParsedPage(t *testing.T) {
	body := `<html><head><script>var x = "PVR Centro Mall 1:00 AM";</script></head>
<body><h2 class="theater-name">PVR Centro Mall</h2><div>Coolie</div>
<ul><li>6:45 PM</li><li>9:30 PM</li></ul><style>.a{}</style></body></html>`
	page, err := ParseHTMLString(body)
	require.NoError(t, err)
	assert.NotContains(t, page.Text, "var x")

	res := Classify(page, []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.True(t, m.Evidence.Exact)
	assert.True(t, m.Evidence.HTML)
	assert.Equal(t, StatusOpen, m.Status)
	assert.Equal(t, []string{"6:45 pm", "9:30 pm"}, res.Showtimes)
}

func TestClassifyTargetHandling(t *testing.T) {
	text := "Coolie INOX Forum 1:00 PM. PVR Centro Mall 2:00 PM."
	res := Classify(TextPage(text), []string{"INOX Forum", "", "  ", "Cinepolis Nexus", "INOX Forum", centro}, "coolie")

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "INOX Forum", res.Matches[0].Target)
	assert.Equal(t, centro, res.Matches[1].Target)
	_, ok := res.find("Cinepolis Nexus")
	assert.False(t, ok)
	assert.Len(t, res.Open(), 2)
}

func TestClassifyEmptyInput(t *testing.T) {
	assert.NotPanics(t, func() {
		res := Classify(Page{}, nil, "")
		assert.False(t, res.SubjectFound)
		assert.False(t, res.Bookable)
		assert.Empty(t, res.Matches)
		assert.Empty(t, res.Showtimes)
	})
	res := Classify(TextPage("coolie"), []string{centro}, "")
	assert.False(t, res.SubjectFound)
	assert.Empty(t, res.Matches)
}

func TestClassifyCustomRules(t *testing.T) {
	c := New(Rules{ProximityAfter: 10})
	res := c.Classify(TextPage("Coolie PVR Centro Mall now showing 6:45 PM"), []string{centro}, "coolie")

	require.Len(t, res.Matches, 1)
	assert.Empty(t, res.Matches[0].Evidence.Showtimes)
	assert.Equal(t, StatusMentioned, res.Matches[0].Status)
	assert.Equal(t, 200, c.rules.ProximityBefore)
}

func TestClassifyConcurrent(t *testing.T) {
	page := TextPage("coolie PVR Centro Mall Screen 3 Book Now 6:45 PM 9:30 PM")
	want := Classify(page, []string{centro}, "coolie")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := Classify(page, []string{centro}, "coolie")
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestDecideStatusesAreValid(t *testing.T) {
	for _, e := range []Evidence{
		{},
		{Subject: true},
		{Subject: true, Weak: true},
		{Subject: true, Strong: true},
		{Subject: true, Strong: true, ScreenLabel: true},
		{Subject: true, Strong: true, Schedule: []string{"1:00 pm"}},
		{Subject: true, Showtimes: []string{"1:00 pm"}},
		{Subject: false, Strong: true, Showtimes: []string{"1:00 pm"}},
	} {
		s, note := decide(e)
		assert.True(t, s.Valid())
		assert.NotEmpty(t, note)
		if !e.Subject {
			assert.NotEqual(t, StatusOpen, s)
		}
	}
}
