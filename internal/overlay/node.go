package overlay

// NodeID identifies a node inside the Model that owns it.
type NodeID int

// NoNode marks an absent node reference (no parent, no text leaf, no match).
const NoNode NodeID = -1

// Kind enumerates the node variants of a media overlay tree.
type Kind int

const (
	KindSeq   Kind = iota // sequential time container
	KindPar               // parallel time container (text + audio)
	KindText              // text fragment leaf
	KindAudio             // audio clip leaf
)

func (k Kind) String() string {
	switch k {
	case KindSeq:
		return "seq"
	case KindPar:
		return "par"
	case KindText:
		return "text"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Node is one element of the overlay tree. Parent is a navigation handle
// only; ownership flows from Model.Children and Seq.Children downward.
type Node struct {
	ID       NodeID
	Kind     Kind
	Parent   NodeID // NoNode for top-level children
	Index    int    // position among the source siblings
	XMLID    string
	EpubType string // whitespace-separated category tags
	Data     NodeData

	dropped bool // misplaced during import; not reachable from the tree
}

// NodeData is the kind-specific payload of a Node.
type NodeData interface {
	nodeData() // restricts implementations to this package
}

// Seq is the payload of a sequential container.
type Seq struct {
	Children []NodeID // Seq or Par nodes only
	TextRef  string
}

// Par is the payload of a parallel container.
type Par struct {
	Text  NodeID // NoNode when the par has no text leaf
	Audio NodeID // always set after import
}

// Text is the payload of a text leaf.
type Text struct {
	Src            string
	SrcFile        string
	SrcFragmentID  string
	ManifestItemID string // empty until resolved
}

func (*Seq) nodeData()   {}
func (*Par) nodeData()   {}
func (*Text) nodeData()  {}
func (*Audio) nodeData() {}
