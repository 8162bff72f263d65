package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/avalverde/butaca/internal/catalog"
	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BillboardView ViewState = iota
	SearchView
	DetailView
	FavoritesView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	prev      ViewState
	catalog   *catalog.Service
	favorites *catalog.Favorites
	sessions  *session.Manager

	width  int
	height int

	movies      []models.Movie
	movieList   list.Model
	listReady   bool
	favVersion  int
	searchInput textinput.Model
	searchQuery string
	searchList  list.Model
	searchReady bool
	favList     list.Model
	favReady    bool
	detail      *models.MovieDetail
	credits     *models.Credits
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc *catalog.Service, favorites *catalog.Favorites, sessions *session.Manager) *Model {
	input := textinput.New()
	input.Placeholder = "Search movies..."
	input.CharLimit = 100

	return &Model{
		ctx:         ctx,
		view:        BillboardView,
		catalog:     svc,
		favorites:   favorites,
		sessions:    sessions,
		searchInput: input,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init resets the billboard cursor and fetches the first page.
func (m *Model) Init() tea.Cmd {
	m.catalog.ResetBillboard()
	return m.fetchBillboard()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.movieList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.searchReady {
			m.searchList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.favReady {
			m.favList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BillboardView:
			return m.handleBillboardKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case FavoritesView:
			return m.handleFavoritesKeys(msg)
		}

	case billboardMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.movies = append(m.movies, msg.movies...)
		m.movieList = m.buildList("Now Playing", m.movies)
		m.listReady = true
		m.favVersion = m.favorites.Version()
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.searchQuery = msg.query
		title := "Popular"
		if strings.TrimSpace(msg.query) != "" {
			title = fmt.Sprintf("Results for '%s'", msg.query)
		}
		m.searchList = m.buildList(title, msg.page.Results)
		m.searchReady = true
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.status = "Movie not found"
			return m, nil
		}
		m.detail = msg.detail
		m.credits = msg.credits
		m.prev = m.view
		m.view = DetailView
		return m, nil

	case favoritesMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Favorites unavailable: %v", msg.err)
			m.view = BillboardView
			return m, nil
		}
		m.favList = m.buildList("Favorites", msg.page.Results)
		m.favReady = true
		m.view = FavoritesView
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Toggle failed: %v", msg.err)
			return m, nil
		}
		if msg.favorite {
			m.status = "Added to favorites"
		} else {
			m.status = "Removed from favorites"
		}
		return m, m.refreshAfterToggle()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case BillboardView:
		return m.renderBillboard()
	case SearchView:
		return m.renderSearch()
	case DetailView:
		return m.renderDetail()
	case FavoritesView:
		return m.renderFavorites()
	default:
		return ""
	}
}

func (m *Model) handleBillboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searchInput.Focus()
		m.searchInput.SetValue("")
		m.searchReady = false
		m.view = SearchView
		return m, textinput.Blink
	case "F":
		return m, m.fetchFavorites()
	case "n":
		return m, m.fetchBillboard()
	case "f":
		if item, ok := m.selectedMovie(&m.movieList); ok {
			return m, m.toggleFavorite(item.movie.ID)
		}
	case "enter":
		if item, ok := m.selectedMovie(&m.movieList); ok {
			return m, m.fetchDetail(item.movie.ID)
		}
	}

	var cmd tea.Cmd
	if m.listReady {
		m.movieList, cmd = m.movieList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchInput.Focused() {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.searchInput.Blur()
			m.view = BillboardView
			return m, nil
		case "enter":
			m.searchInput.Blur()
			return m, m.runSearch(m.searchInput.Value())
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = BillboardView
		return m, nil
	case "/":
		m.searchInput.Focus()
		return m, textinput.Blink
	case "f":
		if item, ok := m.selectedMovie(&m.searchList); ok {
			return m, m.toggleFavorite(item.movie.ID)
		}
	case "enter":
		if item, ok := m.selectedMovie(&m.searchList); ok {
			return m, m.fetchDetail(item.movie.ID)
		}
	}

	var cmd tea.Cmd
	if m.searchReady {
		m.searchList, cmd = m.searchList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = m.prev
		m.detail = nil
		m.credits = nil
		return m, nil
	case "f":
		if m.detail != nil {
			return m, m.toggleFavorite(m.detail.ID)
		}
	}
	return m, nil
}

func (m *Model) handleFavoritesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = BillboardView
		return m, nil
	case "f":
		if item, ok := m.selectedMovie(&m.favList); ok {
			return m, m.toggleFavorite(item.movie.ID)
		}
	case "enter":
		if item, ok := m.selectedMovie(&m.favList); ok {
			return m, m.fetchDetail(item.movie.ID)
		}
	}

	var cmd tea.Cmd
	if m.favReady {
		m.favList, cmd = m.favList.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BillboardView:
		if m.listReady {
			m.movieList, cmd = m.movieList.Update(msg)
		}
	case SearchView:
		if m.searchReady {
			m.searchList, cmd = m.searchList.Update(msg)
		}
	case FavoritesView:
		if m.favReady {
			m.favList, cmd = m.favList.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) selectedMovie(l *list.Model) (movieItem, bool) {
	selected := l.SelectedItem()
	if selected == nil {
		return movieItem{}, false
	}
	item, ok := selected.(movieItem)
	return item, ok
}

func (m *Model) buildList(title string, movies []models.Movie) list.Model {
	items := make([]list.Item, len(movies))
	for i, movie := range movies {
		items[i] = movieItem{movie: movie, favorite: m.favorites.IsFavorite(movie.ID)}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetSize(m.width-4, m.height-8)
	return l
}

func (m *Model) fetchBillboard() tea.Cmd {
	return func() tea.Msg {
		movies, err := m.catalog.NowPlaying(m.ctx)
		return billboardMsg{movies: movies, err: err}
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		page, err := m.catalog.Search(m.ctx, query, 1, catalog.Filters{})
		return searchResultsMsg{query: query, page: page, err: err}
	}
}

func (m *Model) fetchDetail(id int) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.catalog.Detail(m.ctx, id)
		if err != nil {
			return detailMsg{err: err}
		}
		credits, err := m.catalog.MovieCredits(m.ctx, id)
		if err != nil {
			credits = &models.Credits{ID: id}
		}
		return detailMsg{detail: detail, credits: credits}
	}
}

func (m *Model) fetchFavorites() tea.Cmd {
	user := m.sessions.Current()
	if user == nil || !user.Connected() {
		m.status = "Connect a catalog account first"
		return nil
	}
	accountID := user.CatalogAccountID
	return func() tea.Msg {
		page, err := m.favorites.Load(m.ctx, accountID, 1)
		return favoritesMsg{page: page, err: err}
	}
}

func (m *Model) toggleFavorite(movieID int) tea.Cmd {
	user := m.sessions.Current()
	if user == nil || !user.Connected() {
		m.status = "Connect a catalog account first"
		return nil
	}
	accountID := user.CatalogAccountID
	return func() tea.Msg {
		favorite, err := m.favorites.Flip(m.ctx, accountID, movieID)
		return toggledMsg{movieID: movieID, favorite: favorite, err: err}
	}
}

// refreshAfterToggle rebuilds every materialized list so the favorite
// markers match the reloaded cache.
func (m *Model) refreshAfterToggle() tea.Cmd {
	m.favVersion = m.favorites.Version()
	if m.listReady {
		m.movieList = m.buildList(m.movieList.Title, m.movies)
	}
	if m.searchReady {
		items := m.searchList.Items()
		movies := make([]models.Movie, 0, len(items))
		for _, it := range items {
			if mi, ok := it.(movieItem); ok {
				movies = append(movies, mi.movie)
			}
		}
		m.searchList = m.buildList(m.searchList.Title, movies)
	}
	if m.view == FavoritesView {
		return m.fetchFavorites()
	}
	return nil
}

func (m *Model) renderBillboard() string {
	if !m.listReady {
		return styles.help.Render("Loading billboard...")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.favorite, m.keys.more, m.keys.quit}
	return m.withStatus(fmt.Sprintf("%s\n\n%s", m.movieList.View(), m.help.ShortHelpView(helpKeys)))
}

func (m *Model) renderSearch() string {
	if m.searchInput.Focused() {
		title := styles.title.Render("Search")
		hint := styles.help.Render("enter to search, esc to go back")
		return fmt.Sprintf("%s\n%s\n\n%s", title, m.searchInput.View(), hint)
	}
	if !m.searchReady {
		return styles.help.Render("Searching...")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.favorite, m.keys.back, m.keys.quit}
	return m.withStatus(fmt.Sprintf("%s\n\n%s", m.searchList.View(), m.help.ShortHelpView(helpKeys)))
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return styles.help.Render("Loading...")
	}

	title := styles.title.Render(m.detail.Title)
	if m.favorites.IsFavorite(m.detail.ID) {
		title = fmt.Sprintf("%s %s", title, styles.star.Render("★"))
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if m.detail.Tagline != "" {
		b.WriteString(styles.help.Render(m.detail.Tagline))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n%s • %d min • %.1f/10\n", m.detail.GenreNames(), m.detail.Runtime, m.detail.VoteAverage))
	if m.detail.Overview != "" {
		b.WriteString("\n" + m.detail.Overview + "\n")
	}

	if m.credits != nil && len(m.credits.Cast) > 0 {
		b.WriteString("\n" + styles.ok.Render("Cast") + "\n")
		limit := len(m.credits.Cast)
		if limit > 8 {
			limit = 8
		}
		for _, member := range m.credits.Cast[:limit] {
			b.WriteString(fmt.Sprintf("  %s as %s\n", member.Name, member.Character))
		}
	}

	helpKeys := []key.Binding{m.keys.favorite, m.keys.back, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return m.withStatus(b.String())
}

func (m *Model) renderFavorites() string {
	if !m.favReady {
		return styles.help.Render("Loading favorites...")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.favorite, m.keys.back, m.keys.quit}
	return m.withStatus(fmt.Sprintf("%s\n\n%s", m.favList.View(), m.help.ShortHelpView(helpKeys)))
}

func (m *Model) withStatus(view string) string {
	if m.status == "" {
		return view
	}
	return fmt.Sprintf("%s\n%s", view, styles.help.Render(m.status))
}
