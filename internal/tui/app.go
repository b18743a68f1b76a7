package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"examshelf/internal/blob"
	"examshelf/internal/filter"
	"examshelf/internal/model"
	"examshelf/internal/mutate"
	"examshelf/internal/store"
)

type view int

const (
	viewShelves view = iota
	viewTopics
	viewRows
)

type appModel struct {
	store     store.Store
	blobs     blob.Store
	db        *store.DB
	workspace string

	width  int
	height int

	view    view
	shelfID string
	topicID string

	shelvesList list.Model
	topicsList  list.Model
	rowsList    list.Model

	search    textinput.Model
	searching bool
	criteria  filter.Criteria

	confirm  *confirmState
	showHelp bool
	status   string
}

// pasteMsg carries clipboard text for paste-as-row.
type pasteMsg struct {
	topicID string
	text    string
	err     error
}

// ingestMsg is the completion of an asynchronous file ingestion. It carries
// the raw payloads; the handler applies them to the document as it stands
// WHEN THE MESSAGE ARRIVES, so rows added during the read are kept.
type ingestMsg struct {
	topicID  string
	incoming []mutate.IngestedFile
	payloads [][]byte
	err      error
}

func newAppModel(opts Options) *appModel {
	newList := func() list.Model {
		l := list.New(nil, newCompactItemDelegate(), 0, 0)
		l.SetShowTitle(false)
		l.SetShowStatusBar(false)
		l.SetShowHelp(false)
		l.SetFilteringEnabled(false)
		return l
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search file and topic names"

	m := &appModel{
		store:       opts.Store,
		blobs:       opts.Blobs,
		db:          opts.DB,
		workspace:   opts.Workspace,
		shelvesList: newList(),
		topicsList:  newList(),
		rowsList:    newList(),
		search:      search,
	}
	if sh, ok := m.db.CurrentShelf(); ok {
		m.shelfID = sh.ID
		m.view = viewTopics
	}
	m.refresh()
	return m
}

func (m *appModel) Init() tea.Cmd { return nil }

// currentShelf resolves the opened shelf; nil when it was deleted.
func (m *appModel) currentShelf() *model.Shelf {
	sh, ok := m.db.FindShelf(m.shelfID)
	if !ok {
		return nil
	}
	return sh
}

func (m *appModel) currentTopic() *model.Topic {
	_, t, ok := m.db.FindTopic(m.topicID)
	if !ok {
		return nil
	}
	return t
}

func (m *appModel) criteriaNow() filter.Criteria {
	c := m.criteria
	c.Search = m.search.Value()
	return c
}

// refresh rebuilds every list from the document and active criteria. Cheap
// enough to run after every mutation and keystroke.
func (m *appModel) refresh() {
	items := make([]list.Item, 0, len(m.db.Shelves))
	for _, sh := range m.db.Shelves {
		items = append(items, shelfItem{shelf: sh, current: sh.ID == m.db.CurrentShelfID})
	}
	m.shelvesList.SetItems(items)

	if sh := m.currentShelf(); sh != nil {
		visible := filter.VisibleTopics(sh.Topics, m.criteriaNow())
		items = make([]list.Item, 0, len(visible))
		for _, v := range visible {
			items = append(items, topicItem{topic: v.Topic, visibleRows: len(v.Rows)})
		}
		m.topicsList.SetItems(items)
	} else {
		m.topicsList.SetItems(nil)
	}

	if t := m.currentTopic(); t != nil {
		items = nil
		for _, v := range filter.VisibleTopics([]model.Topic{*t}, m.criteriaNow()) {
			for _, r := range v.Rows {
				items = append(items, rowItem{row: r})
			}
		}
		m.rowsList.SetItems(items)
	} else {
		m.rowsList.SetItems(nil)
	}
}

func (m *appModel) save() {
	if err := m.store.Save(m.db); err != nil {
		m.status = fmt.Sprintf("warning: save failed: %v (in-memory state unaffected)", err)
	}
}

func (m *appModel) releaseBlobs(ids []string) {
	for _, id := range ids {
		if err := m.blobs.Delete(id); err != nil {
			m.status = fmt.Sprintf("warning: blob %s not released: %v", id, err)
		}
	}
}

func (m *appModel) activeList() *list.Model {
	switch m.view {
	case viewShelves:
		return &m.shelvesList
	case viewTopics:
		return &m.topicsList
	default:
		return &m.rowsList
	}
}

func (m *appModel) selectedShelf() (model.Shelf, bool) {
	it, ok := m.shelvesList.SelectedItem().(shelfItem)
	if !ok {
		return model.Shelf{}, false
	}
	return it.shelf, true
}

func (m *appModel) selectedTopic() (model.Topic, bool) {
	it, ok := m.topicsList.SelectedItem().(topicItem)
	if !ok {
		return model.Topic{}, false
	}
	return it.topic, true
}

func (m *appModel) selectedRow() (model.FileRow, bool) {
	it, ok := m.rowsList.SelectedItem().(rowItem)
	if !ok {
		return model.FileRow{}, false
	}
	return it.row, true
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listH := m.height - 5
		if listH < 3 {
			listH = 3
		}
		for _, l := range []*list.Model{&m.shelvesList, &m.topicsList, &m.rowsList} {
			l.SetSize(m.width-2, listH)
		}
		return m, nil

	case pasteMsg:
		return m.handlePaste(msg)

	case ingestMsg:
		return m.handleIngest(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	*m.activeList(), cmd = m.activeList().Update(msg)
	return m, cmd
}

func (m *appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	if m.showHelp {
		switch msg.String() {
		case "q", "esc", "?":
			m.showHelp = false
		}
		return m, nil
	}

	if m.searching {
		switch msg.Type {
		case tea.KeyEsc:
			m.searching = false
			m.search.SetValue("")
			m.search.Blur()
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.refresh()
		return m, cmd
	}

	m.status = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "t":
		m.criteria.TopicStatus = cycleTopicStatus(m.criteria.TopicStatus)
		m.refresh()
		return m, nil
	case "c":
		m.criteria.RowStatus = cycleRowStatus(m.criteria.RowStatus)
		m.refresh()
		return m, nil
	case "a":
		m.criteria.Answer = cycleAnswerStatus(m.criteria.Answer)
		m.refresh()
		return m, nil
	case "esc":
		switch m.view {
		case viewRows:
			m.view = viewTopics
			m.topicID = ""
		case viewTopics:
			m.view = viewShelves
		}
		m.refresh()
		return m, nil
	}

	switch m.view {
	case viewShelves:
		return m.handleShelvesKey(msg)
	case viewTopics:
		return m.handleTopicsKey(msg)
	default:
		return m.handleRowsKey(msg)
	}
}

func (m *appModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.confirm = nil
	case "tab", "left", "right":
		if m.confirm.focus == confirmFocusConfirm {
			m.confirm.focus = confirmFocusCancel
		} else {
			m.confirm.focus = confirmFocusConfirm
		}
	case "enter":
		if m.confirm.focus == confirmFocusConfirm {
			m.confirm.confirm()
			m.save()
			m.refresh()
		}
		m.confirm = nil
	}
	return m, nil
}

func (m *appModel) handleShelvesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if sh, ok := m.selectedShelf(); ok {
			m.shelfID = sh.ID
			if res, err := mutate.UseShelf(m.db, sh.ID); err == nil && res.Changed {
				m.save()
			}
			m.view = viewTopics
			m.refresh()
		}
		return m, nil
	case "n":
		name := fmt.Sprintf("Shelf %d", len(m.db.Shelves)+1)
		if res, err := mutate.AddShelf(m.db, name, model.ColorBlue); err == nil {
			m.shelfID = res.Shelf.ID
			m.save()
			_ = m.store.AppendEvent("shelf.create", res.Shelf.ID, res.EventPayload)
			m.refresh()
		}
		return m, nil
	case "C":
		if sh, ok := m.selectedShelf(); ok {
			next := nextColorTag(sh.ColorTag)
			if res, err := mutate.SetShelfColor(m.db, sh.ID, next); err == nil && res.Changed {
				m.save()
				_ = m.store.AppendEvent("shelf.color", sh.ID, res.EventPayload)
				m.refresh()
			}
		}
		return m, nil
	case "d":
		if sh, ok := m.selectedShelf(); ok {
			id := sh.ID
			m.confirm = &confirmState{
				title: "Delete shelf",
				body:  fmt.Sprintf("Delete %q and all its topics? Stored file content is released.", sh.Name),
				focus: confirmFocusCancel,
				confirm: func() {
					if res, err := mutate.DeleteShelf(m.db, id); err == nil {
						m.releaseBlobs(res.ReleasedFileIDs)
						_ = m.store.AppendEvent("shelf.delete", id, res.EventPayload)
						if m.shelfID == id {
							m.shelfID = m.db.CurrentShelfID
						}
					}
				},
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.shelvesList, cmd = m.shelvesList.Update(msg)
	return m, cmd
}

func (m *appModel) handleTopicsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if t, ok := m.selectedTopic(); ok {
			m.topicID = t.ID
			m.view = viewRows
			m.refresh()
		}
		return m, nil
	case "n":
		if res, err := mutate.AddTopic(m.db, m.shelfID); err == nil {
			m.save()
			_ = m.store.AppendEvent("topic.add", res.Topic.ID, res.EventPayload)
			m.refresh()
		}
		return m, nil
	case "z":
		if t, ok := m.selectedTopic(); ok {
			collapsed := !t.IsCollapsed
			if res, err := mutate.UpdateTopic(m.db, m.shelfID, t.ID, mutate.TopicPatch{IsCollapsed: &collapsed}); err == nil && res.Changed {
				m.save()
				m.refresh()
			}
		}
		return m, nil
	case "K", "J":
		if t, ok := m.selectedTopic(); ok {
			sh := m.currentShelf()
			if sh == nil {
				return m, nil
			}
			idx := -1
			for i := range sh.Topics {
				if sh.Topics[i].ID == t.ID {
					idx = i
					break
				}
			}
			dir := mutate.DirectionUp
			if msg.String() == "J" {
				dir = mutate.DirectionDown
			}
			if res, err := mutate.MoveTopic(m.db, m.shelfID, idx, dir); err == nil && res.Changed {
				m.save()
				_ = m.store.AppendEvent("topic.move", t.ID, res.EventPayload)
				m.refresh()
			}
		}
		return m, nil
	case "o":
		if t, ok := m.selectedTopic(); ok {
			if res, err := mutate.SortRowsByQuestionName(m.db, t.ID); err == nil {
				m.save()
				_ = m.store.AppendEvent("topic.sort", t.ID, res.EventPayload)
				m.refresh()
			}
		}
		return m, nil
	case "d":
		if t, ok := m.selectedTopic(); ok {
			id := t.ID
			m.confirm = &confirmState{
				title: "Delete topic",
				body:  fmt.Sprintf("Delete %q and its %d rows? Stored file content is released.", t.Name, len(t.Files)),
				focus: confirmFocusCancel,
				confirm: func() {
					if res, err := mutate.DeleteTopic(m.db, m.shelfID, id); err == nil {
						m.releaseBlobs(res.ReleasedFileIDs)
						_ = m.store.AppendEvent("topic.delete", id, res.EventPayload)
					}
				},
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.topicsList, cmd = m.topicsList.Update(msg)
	return m, cmd
}

func (m *appModel) handleRowsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x", "enter":
		if r, ok := m.selectedRow(); ok {
			if res, err := mutate.SetRowCompleted(m.db, m.topicID, r.ID, !r.IsCompleted); err == nil && res.Changed {
				m.save()
				_ = m.store.AppendEvent("row.complete", r.ID, res.EventPayload)
				m.refresh()
			}
		}
		return m, nil
	case "n":
		if res, err := mutate.AddRow(m.db, m.topicID); err == nil {
			m.save()
			_ = m.store.AppendEvent("row.add", res.Row.ID, res.EventPayload)
			m.refresh()
		}
		return m, nil
	case "p":
		topicID := m.topicID
		return m, func() tea.Msg {
			text, err := readClipboard()
			return pasteMsg{topicID: topicID, text: text, err: err}
		}
	case "i":
		topicID := m.topicID
		return m, func() tea.Msg { return ingestFromClipboard(topicID) }
	case "d":
		if r, ok := m.selectedRow(); ok {
			id := r.ID
			m.confirm = &confirmState{
				title: "Delete row",
				body:  "Delete this row? Stored file content is released.",
				focus: confirmFocusCancel,
				confirm: func() {
					if res, err := mutate.DeleteRow(m.db, m.topicID, id); err == nil {
						m.releaseBlobs(res.ReleasedFileIDs)
						_ = m.store.AppendEvent("row.delete", id, res.EventPayload)
					}
				},
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.rowsList, cmd = m.rowsList.Update(msg)
	return m, cmd
}

func (m *appModel) handlePaste(msg pasteMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("warning: clipboard read failed: %v", msg.err)
		return m, nil
	}
	res, err := mutate.PasteTextRow(m.db, msg.topicID, msg.text)
	if err != nil {
		m.status = fmt.Sprintf("warning: paste: %v", err)
		return m, nil
	}
	m.save()
	_ = m.store.AppendEvent("file.paste", res.Row.ID, res.EventPayload)
	m.refresh()
	return m, nil
}

// ingestFromClipboard reads newline-separated file paths from the clipboard
// and loads their payloads off the UI loop.
func ingestFromClipboard(topicID string) ingestMsg {
	text, err := readClipboard()
	if err != nil {
		return ingestMsg{topicID: topicID, err: err}
	}
	var incoming []mutate.IngestedFile
	var payloads [][]byte
	for _, line := range strings.Split(text, "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ingestMsg{topicID: topicID, err: err}
		}
		incoming = append(incoming, mutate.IngestedFile{
			Name:      filepath.Base(path),
			SizeBytes: uint64(len(data)),
			HasBlob:   true,
		})
		payloads = append(payloads, data)
	}
	return ingestMsg{topicID: topicID, incoming: incoming, payloads: payloads}
}

func (m *appModel) handleIngest(msg ingestMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("warning: ingest failed: %v", msg.err)
		return m, nil
	}
	if len(msg.incoming) == 0 {
		m.status = "clipboard holds no file paths"
		return m, nil
	}
	// Apply against the document as it stands now; rows added while the
	// payloads were being read stay in place.
	res, err := mutate.IngestFiles(m.db, msg.topicID, msg.incoming)
	if err != nil {
		m.status = fmt.Sprintf("warning: ingest: %v", err)
		return m, nil
	}
	for i, meta := range res.Files {
		if err := m.blobs.Put(meta.ID, msg.payloads[i]); err != nil {
			m.status = fmt.Sprintf("warning: blob store: %v; metadata kept without content", err)
			meta.HasBlob = false
		}
	}
	m.save()
	_ = m.store.AppendEvent("file.ingest", msg.topicID, res.EventPayload)
	m.refresh()
	return m, nil
}

func cycleTopicStatus(s filter.TopicStatus) filter.TopicStatus {
	switch s {
	case filter.TopicAll, "":
		return filter.TopicCompleted
	case filter.TopicCompleted:
		return filter.TopicIncomplete
	default:
		return filter.TopicAll
	}
}

func cycleRowStatus(s filter.RowStatus) filter.RowStatus {
	switch s {
	case filter.RowAll, "":
		return filter.RowCompleted
	case filter.RowCompleted:
		return filter.RowIncomplete
	default:
		return filter.RowAll
	}
}

func cycleAnswerStatus(s filter.AnswerStatus) filter.AnswerStatus {
	switch s {
	case filter.AnswerAll, "":
		return filter.AnswerHas
	case filter.AnswerHas:
		return filter.AnswerNo
	default:
		return filter.AnswerAll
	}
}

func nextColorTag(c model.ColorTag) model.ColorTag {
	tags := model.ColorTags()
	for i, t := range tags {
		if t == c {
			return tags[(i+1)%len(tags)]
		}
	}
	return tags[0]
}
