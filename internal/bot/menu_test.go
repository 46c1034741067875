package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartelera-bot/internal/config"
	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/tmdb"
)

func buttonData(t *testing.T, b tgbotapi.InlineKeyboardButton) string {
	t.Helper()
	require.NotNil(t, b.CallbackData, "button %q has no callback data", b.Text)
	return *b.CallbackData
}

func lastRowData(t *testing.T, m Menu) string {
	t.Helper()
	rows := m.Markup.InlineKeyboard
	require.NotEmpty(t, rows)
	return buttonData(t, rows[len(rows)-1][0])
}

func TestCinemasMenu(t *testing.T) {
	menu := CinemasMenu(config.Default().Cinemas)

	require.Len(t, menu.Markup.InlineKeyboard, 1)
	row := menu.Markup.InlineKeyboard[0]
	require.Len(t, row, 3)
	assert.Equal(t, "🎟️ Cinesa Parquesur", row[0].Text)
	assert.Equal(t, "cinema:cinesa", buttonData(t, row[0]))
	assert.Equal(t, "cinema:odeon", buttonData(t, row[1]))
	assert.Equal(t, "cinema:yelmo", buttonData(t, row[2]))
	assert.Contains(t, menu.Text, "Selecciona un cine")
}

func TestMoviesMenu(t *testing.T) {
	cinema := config.CinemaConfig{ID: "cinesa", Name: "Cinesa Parquesur", Emoji: "🎟️"}
	groups := scraper.GroupByBaseTitle([]scraper.Listing{
		{Title: "Superman (VOSE)"},
		{Title: "Superman", HasPresale: true},
		{Title: "Elio"},
	})

	menu := MoviesMenu(cinema, groups)
	rows := menu.Markup.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, "🎬 Superman (Preventa)", rows[0][0].Text)
	assert.Equal(t, "movie:0", buttonData(t, rows[0][0]))
	assert.Equal(t, "🎬 Elio", rows[1][0].Text)
	assert.Equal(t, "movie:1", buttonData(t, rows[1][0]))
	assert.Equal(t, backCinemas, lastRowData(t, menu))
	assert.Equal(t, "🎟️ *Cinesa Parquesur* - Películas disponibles:", menu.Text)
}

func TestMoviesMenu_Empty(t *testing.T) {
	menu := MoviesMenu(config.CinemaConfig{Name: "Odeón Sambil", Emoji: "🎥"}, nil)
	require.Len(t, menu.Markup.InlineKeyboard, 1)
	assert.Equal(t, backCinemas, lastRowData(t, menu))
	assert.Contains(t, menu.Text, "No hay películas disponibles")
}

func TestVersionsMenu(t *testing.T) {
	group := scraper.MovieGroup{
		BaseTitle: "Superman",
		Versions:  []scraper.Listing{{Title: "Superman"}, {Title: "Superman (VOSE)"}},
	}
	menu := VersionsMenu(group)
	rows := menu.Markup.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, "🎭 Superman (VOSE)", rows[1][0].Text)
	assert.Equal(t, "version:1", buttonData(t, rows[1][0]))
	assert.Equal(t, backMovies, lastRowData(t, menu))
}

func TestOptionsMenu(t *testing.T) {
	menu := OptionsMenu(scraper.Listing{Title: "F1"}, backVersions)
	rows := menu.Markup.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, actionShowtimes, buttonData(t, rows[0][0]))
	assert.Equal(t, actionInfo, buttonData(t, rows[1][0]))
	assert.Equal(t, backVersions, lastRowData(t, menu))
}

func TestDaysMenu(t *testing.T) {
	l := scraper.Listing{Title: "F1", Showings: []scraper.DayShowtimes{
		{Day: "Viernes 11 de julio", Times: []scraper.TimeSlot{{Time: "18:00", URL: "https://t/1"}}},
		{Day: "Sábado 12 de julio", Times: []scraper.TimeSlot{{Time: "20:00", URL: "https://t/2"}}},
	}}

	menu := DaysMenu(l)
	rows := menu.Markup.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, "📅 Sábado 12 de julio", rows[1][0].Text)
	assert.Equal(t, "day:1", buttonData(t, rows[1][0]))
	assert.Equal(t, backOptions, lastRowData(t, menu))

	empty := DaysMenu(scraper.Listing{Title: "F1"})
	assert.Contains(t, empty.Text, "No hay horarios disponibles")
	assert.Equal(t, backOptions, lastRowData(t, empty))
}

func TestTimesMenu(t *testing.T) {
	day := scraper.DayShowtimes{Day: "Viernes", Times: []scraper.TimeSlot{
		{Time: "18:00", URL: "https://tickets.test/1"},
		{Time: "21:30", URL: "/relative"},
	}}
	menu := TimesMenu(scraper.Listing{Title: "F1"}, day)
	rows := menu.Markup.InlineKeyboard
	require.Len(t, rows, 3)

	require.NotNil(t, rows[0][0].URL)
	assert.Equal(t, "https://tickets.test/1", *rows[0][0].URL)
	assert.Equal(t, "🕐 18:00", rows[0][0].Text)

	assert.Nil(t, rows[1][0].URL)
	assert.Equal(t, actionNoop, buttonData(t, rows[1][0]))
	assert.Equal(t, backDays, lastRowData(t, menu))
}

func TestInfoMenu(t *testing.T) {
	l := scraper.Listing{
		Title:      "Lilo_y_Stitch",
		HasPresale: true,
		Showings:   []scraper.DayShowtimes{{Day: "Viernes"}, {Day: "Sábado"}},
	}

	with := InfoMenu(l, &tmdb.Movie{ReleaseDate: "2025-05-21", VoteAverage: 7.12, Overview: "Una niña hawaiana..."})
	assert.Contains(t, with.Text, `Lilo\_y\_Stitch`)
	assert.Contains(t, with.Text, "Año: 2025")
	assert.Contains(t, with.Text, "⭐ 7.1/10")
	assert.Contains(t, with.Text, "En preventa: ✅ Sí")
	assert.Contains(t, with.Text, "Días disponibles: 2")
	assert.Contains(t, with.Text, "Una niña hawaiana...")
	assert.Equal(t, backOptions, lastRowData(t, with))

	without := InfoMenu(scraper.Listing{Title: "Elio"}, nil)
	assert.Contains(t, without.Text, "En preventa: ❌ No")
	assert.Contains(t, without.Text, "No se encontró información adicional en TMDb")
	assert.NotContains(t, without.Text, "Sinopsis")
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data   string
		action string
		arg    string
	}{
		{"cinema:odeon", actionCinema, "odeon"},
		{"movie:12", actionMovie, "12"},
		{"showtimes", actionShowtimes, ""},
		{"back:options", actionBack, "options"},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			action, arg := parseCallback(tt.data)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.arg, arg)
		})
	}

	_, ok := parseIndex("3", 3)
	assert.False(t, ok)
	_, ok = parseIndex("-1", 3)
	assert.False(t, ok)
	_, ok = parseIndex("x", 3)
	assert.False(t, ok)
	i, ok := parseIndex("2", 3)
	assert.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestCallbackDataFitsTelegramLimit(t *testing.T) {
	for _, c := range config.Default().Cinemas {
		assert.LessOrEqual(t, len(actionCinema+":"+c.ID), 64)
	}
	assert.LessOrEqual(t, len(callback(actionVersion, 9999)), 64)
}
