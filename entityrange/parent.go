package entityrange

// ParentID is the parent-reference component payload: a newtype over
// the parent entity's identifier. Stored as an ordinary (bound)
// component so the parent-chain walk used by hierarchy systems is just
// another pool lookup (spec §9: "store parent ids as an ordinary
// component type... with a separate parameter list... describing any
// required/forbidden parent sub-components").
type ParentID struct {
	Parent ID
}
