package expr

import "github.com/cctr-run/cctr/internal/value"

// Expr is the evaluator's AST node type.
type Expr interface{}

type LiteralExpr struct{ Val value.Value }

type ArrayExpr struct{ Items []Expr }

type IdentExpr struct{ Name string }

type FieldExpr struct {
	Recv Expr
	Name string
}

type IndexExpr struct {
	Recv  Expr
	Index Expr
}

type CallExpr struct {
	Name string
	Args []Expr
}

type UnaryExpr struct {
	Op   string // "-" or "not"
	Expr Expr
}

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Neg   bool // true for "not contains", "not matches", etc.
}

// RegexExpr is a /pattern/ literal, only legal as the right operand of matches.
type RegexExpr struct{ Pattern string }

// ForallExpr is the top-level quantifier form: Predicate forall Ident in Collection.
type ForallExpr struct {
	Ident      string
	Collection Expr
	Predicate  Expr
}
