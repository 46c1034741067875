package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cartelera-bot/internal/config"
	"cartelera-bot/internal/scraper"
	"cartelera-bot/pkg/tmdb"
)

// 回调数据格式: "<action>" 或 "<action>:<arg>"，参数用下标以保持在64字节以内
const (
	actionCinema    = "cinema"
	actionMovie     = "movie"
	actionVersion   = "version"
	actionShowtimes = "showtimes"
	actionInfo      = "info"
	actionDay       = "day"
	actionBack      = "back"
	actionNoop      = "noop"

	backCinemas  = "back:cinemas"
	backMovies   = "back:movies"
	backVersions = "back:versions"
	backOptions  = "back:options"
	backDays     = "back:days"
)

const (
	welcomeText   = "🎬 ¡Bienvenido al Bot de Cartelera de Madrid Sur!\n\nSelecciona un cine para ver la cartelera:"
	backLabel     = "🔙 Volver"
	presaleSuffix = " (Preventa)"
)

// Menu is the text and inline keyboard of one screen.
type Menu struct {
	Text   string
	Markup tgbotapi.InlineKeyboardMarkup
}

func callback(action string, index int) string {
	return action + ":" + strconv.Itoa(index)
}

// parseCallback splits callback data into action and argument.
func parseCallback(data string) (string, string) {
	action, arg, _ := strings.Cut(data, ":")
	return action, arg
}

// parseIndex parses a callback index and checks it against n.
func parseIndex(arg string, n int) (int, bool) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func backRow(data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(backLabel, data))
}

func withBack(data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow(data))
}

// CinemasMenu is the start screen: one button per cinema on a single row.
func CinemasMenu(cinemas []config.CinemaConfig) Menu {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(cinemas))
	for _, c := range cinemas {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label(), actionCinema+":"+c.ID))
	}
	return Menu{
		Text:   welcomeText,
		Markup: tgbotapi.NewInlineKeyboardMarkup(row),
	}
}

// LoadingMenu is shown while a cinema is being scraped.
func LoadingMenu(cinema config.CinemaConfig) Menu {
	return Menu{
		Text:   fmt.Sprintf("%s *%s*\n\n⏳ Cargando cartelera...", cinema.Emoji, escape(cinema.Name)),
		Markup: withBack(backCinemas),
	}
}

// MovieLabel is the button label of a film group.
func MovieLabel(g scraper.MovieGroup) string {
	label := "🎬 " + g.BaseTitle
	if g.HasPresale() {
		label += presaleSuffix
	}
	return label
}

// MoviesMenu lists the films of a cinema, one button per base title.
func MoviesMenu(cinema config.CinemaConfig, groups []scraper.MovieGroup) Menu {
	header := fmt.Sprintf("%s *%s*", cinema.Emoji, escape(cinema.Name))
	if len(groups) == 0 {
		return Menu{
			Text:   header + "\n\n❌ No hay películas disponibles en este momento.",
			Markup: withBack(backCinemas),
		}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(groups)+1)
	for i, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(MovieLabel(g), callback(actionMovie, i)),
		))
	}
	rows = append(rows, backRow(backCinemas))

	return Menu{
		Text:   header + " - Películas disponibles:",
		Markup: tgbotapi.NewInlineKeyboardMarkup(rows...),
	}
}

// ScrapeErrorMenu reports a listing page that could not be fetched.
func ScrapeErrorMenu(cinema config.CinemaConfig) Menu {
	return Menu{
		Text:   fmt.Sprintf("%s *%s*\n\n❌ No se pudo obtener la cartelera. Inténtalo más tarde.", cinema.Emoji, escape(cinema.Name)),
		Markup: withBack(backCinemas),
	}
}

// VersionsMenu lists the versions of a film with several versions.
func VersionsMenu(g scraper.MovieGroup) Menu {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(g.Versions)+1)
	for i, v := range g.Versions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎭 "+v.Title, callback(actionVersion, i)),
		))
	}
	rows = append(rows, backRow(backMovies))

	return Menu{
		Text:   fmt.Sprintf("🎬 *%s*\n\nSelecciona la versión:", escape(g.BaseTitle)),
		Markup: tgbotapi.NewInlineKeyboardMarkup(rows...),
	}
}

// OptionsMenu offers showtimes or film information. back is where "Volver" leads:
// the version list when the film has several versions, else the film list.
func OptionsMenu(l scraper.Listing, back string) Menu {
	return Menu{
		Text: fmt.Sprintf("🎬 *%s*\n\n¿Qué quieres hacer?", escape(l.Title)),
		Markup: tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Ver horarios", actionShowtimes)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📖 Ver información", actionInfo)),
			backRow(back),
		),
	}
}

// DaysMenu lists the days with showtimes.
func DaysMenu(l scraper.Listing) Menu {
	if len(l.Showings) == 0 {
		return Menu{
			Text:   fmt.Sprintf("🎬 *%s*\n\n❌ No hay horarios disponibles para esta película", escape(l.Title)),
			Markup: withBack(backOptions),
		}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(l.Showings)+1)
	for i, d := range l.Showings {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 "+d.Day, callback(actionDay, i)),
		))
	}
	rows = append(rows, backRow(backOptions))

	return Menu{
		Text:   fmt.Sprintf("🎬 *%s*\n\n📅 Selecciona el día:", escape(l.Title)),
		Markup: tgbotapi.NewInlineKeyboardMarkup(rows...),
	}
}

// timeButton opens the booking page. Telegram only accepts absolute URLs, so
// relative links become inert buttons.
func timeButton(slot scraper.TimeSlot) tgbotapi.InlineKeyboardButton {
	label := "🕐 " + slot.Time
	if strings.HasPrefix(slot.URL, "http://") || strings.HasPrefix(slot.URL, "https://") {
		return tgbotapi.NewInlineKeyboardButtonURL(label, slot.URL)
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, actionNoop)
}

// TimesMenu shows one booking button per session of a day.
func TimesMenu(l scraper.Listing, day scraper.DayShowtimes) Menu {
	if len(day.Times) == 0 {
		return Menu{
			Text:   "❌ No hay horarios disponibles para este día",
			Markup: withBack(backDays),
		}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(day.Times)+1)
	for _, slot := range day.Times {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(timeButton(slot)))
	}
	rows = append(rows, backRow(backDays))

	return Menu{
		Text:   fmt.Sprintf("🎬 *%s*\n📅 *%s*\n\n🕐 Selecciona horario:", escape(l.Title), escape(day.Day)),
		Markup: tgbotapi.NewInlineKeyboardMarkup(rows...),
	}
}

func yesNo(b bool) string {
	if b {
		return "✅ Sí"
	}
	return "❌ No"
}

// InfoMenu summarizes a listing, enriched with TMDb data when movie is not nil.
func InfoMenu(l scraper.Listing, movie *tmdb.Movie) Menu {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎬 *%s*\n\n", escape(l.Title))

	if movie != nil {
		overview := movie.Overview
		if overview == "" {
			overview = "No disponible"
		}
		sb.WriteString("📋 *Información:*\n")
		fmt.Fprintf(&sb, "- Año: %s\n", movie.Year())
		fmt.Fprintf(&sb, "- Puntuación: ⭐ %.1f/10\n", movie.VoteAverage)
		fmt.Fprintf(&sb, "- En preventa: %s\n", yesNo(l.HasPresale))
		fmt.Fprintf(&sb, "- Días disponibles: %d\n\n", len(l.Showings))
		sb.WriteString("📝 *Sinopsis:*\n")
		sb.WriteString(escape(overview))
	} else {
		sb.WriteString("📋 *Información disponible:*\n")
		fmt.Fprintf(&sb, "- En preventa: %s\n", yesNo(l.HasPresale))
		fmt.Fprintf(&sb, "- Días disponibles: %d\n\n", len(l.Showings))
		sb.WriteString("❌ *No se encontró información adicional en TMDb*")
	}

	return Menu{
		Text:   sb.String(),
		Markup: withBack(backOptions),
	}
}

// PosterCaption is the caption of the poster photo.
func PosterCaption(l scraper.Listing) string {
	return fmt.Sprintf("🎬 *%s*", escape(l.Title))
}

// ExpiredMenu is shown when a callback refers to state the session no longer has,
// e.g. after a restart.
func ExpiredMenu() Menu {
	return Menu{
		Text:   "❌ Error: la sesión ha caducado, vuelve a elegir un cine",
		Markup: withBack(backCinemas),
	}
}
