package entity

type keyType string

// EditorContextKey is the context key holding the UUID of the editor connection a request came from.
const EditorContextKey keyType = "EditorUUID"
