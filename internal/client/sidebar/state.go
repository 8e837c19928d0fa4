package sidebar

// State is the selection state of the sidebar.
type State int

const (
	NoUserSelected State = iota
	NoFolderSelected
	FolderSelectedNoConversation
	ConversationActive
)

func (s State) String() string {
	switch s {
	case NoUserSelected:
		return "NoUserSelected"
	case NoFolderSelected:
		return "NoFolderSelected"
	case FolderSelectedNoConversation:
		return "FolderSelectedNoConversation"
	case ConversationActive:
		return "ConversationActive"
	default:
		return "Unknown"
	}
}

type ItemKind int

const (
	ItemFolder ItemKind = iota + 1
	ItemConversation
)

// Item is a drag source or drop target.
type Item struct {
	Kind ItemKind
	ID   string
}

func FolderItem(id string) Item {
	return Item{Kind: ItemFolder, ID: id}
}

func ConversationItem(id string) Item {
	return Item{Kind: ItemConversation, ID: id}
}
