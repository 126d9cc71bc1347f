// Package parser turns ISO-subset Prolog source text into term.Clause
// values, using a goparsec AST-combinator pipeline: a grammar of parser
// combinators produces a pc.Queryable tree, which a second pass walks into
// domain values.
//
// Unlike a flat, non-recursive grammar, Prolog's term syntax nests
// arbitrarily (compound arguments, list elements, parenthesized
// expressions, operator chains), so the grammar below has several genuine
// self-references. Each is expressed as a forward-declared package var of
// the library's Parser function type, dereferenced through a lazy wrapper
// closure: a library gets to define how one rule matches input, but
// nothing stops a Go var from referring to itself once it is assigned,
// which is all recursion needs, and it costs nothing beyond this package's
// own init().
//
// Every binary-operator layer below is parsed right-recursively (the
// natural shape for goparsec's combinators), including the left-associative
// arithmetic operators (+ - * /): the conversion pass in convert.go walks
// the resulting right-leaning chain and left-folds it back into the
// correct association. ',' and ';' are genuinely right-associative in
// Prolog already, so no folding is needed for those.
package parser

import (
	pc "github.com/prataprc/goparsec"
)

var ast = pc.NewAST("prolog_program", 0)

var (
	pTerm, pArgTerm                     pc.Parser
	pUnary, pPow, pMul, pAdd, pCompare  pc.Parser
	pAnd                                pc.Parser
)

func ref(p *pc.Parser) pc.Parser {
	return func(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return (*p)(s) }
}

var (
	pComment = ast.OrdChoice("comment", nil,
		ast.And("sl_comment", nil, pc.Atom("%", "%"), pc.Token(`(?m).*$`, "COMMENT")),
		ast.And("ml_comment", nil, pc.Token(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`, "COMMENT")),
	)

	pVariable   = pc.Token(`[A-Z_][0-9a-zA-Z_]*`, "VARIABLE")
	pBareAtom   = pc.Token(`[a-z][0-9a-zA-Z_]*`, "ATOM")
	pQuotedAtom = pc.Token(`'(?:\\.|[^'\\])*'`, "QUOTED_ATOM")
	pCharString = pc.Token(`"(?:\\.|[^"\\])*"`, "STRING")
	pAtomName   = ast.OrdChoice("atom_name", nil, pQuotedAtom, pBareAtom)

	pComma     = pc.Atom(",", ",")
	pPipe      = pc.Atom("|", "|")
	pLParen    = pc.Atom("(", "(")
	pRParen    = pc.Atom(")", ")")
	pLBrack    = pc.Atom("[", "[")
	pRBrack    = pc.Atom("]", "]")
	pArrow     = pc.Atom(":-", ":-")
	pQMark     = pc.Atom("?-", "?-")
	pClauseEnd = pc.Atom(".", ".")

	// Longer-prefix alternatives are listed before their shorter prefixes
	// ("=<" before "=", ">=" before ">") since OrdChoice takes the first
	// alternative that matches, not the longest.
	pCompareOp = ast.OrdChoice("compare_op", nil,
		pc.Atom("=<", "=<"), pc.Atom(">=", ">="), pc.Atom("\\=", "\\="),
		pc.Atom("=", "="), pc.Atom("<", "<"), pc.Atom(">", ">"),
		pc.Token(`is\b`, "is"),
	)
	pAddOp = ast.OrdChoice("add_op", nil, pc.Atom("+", "+"), pc.Atom("-", "-"))
	pMulOp = ast.OrdChoice("mul_op", nil, pc.Atom("*", "*"), pc.Atom("/", "/"), pc.Token(`mod\b`, "mod"))
	pPowOp = pc.Atom("**", "**")
	pAndOp = pc.Atom(",", ",")
	pOrOp  = pc.Atom(";", ";")
)

var (
	// list := '[' (argTerm (',' argTerm)* ('|' argTerm)?)? ']'
	pListItems = ast.And("list_items", nil,
		ast.Kleene("list_heads", nil, ref(&pArgTerm), pComma),
		ast.Maybe("list_tail", nil, ast.And("tail", nil, pPipe, ref(&pArgTerm))),
	)
	pList = ast.And("list", nil, pLBrack, ast.Maybe("list_body", nil, pListItems), pRBrack)

	pArgs     = ast.Kleene("args", nil, ref(&pArgTerm), pComma)
	pCompound = ast.And("compound", nil, pAtomName, pLParen, pArgs, pRParen)

	// Explicit parens re-enter the full term grammar: they are how a ','
	// or ';' escapes the argument-priority ceiling and appears as a
	// single compound argument or list element (e.g. foo((a,b))).
	pParenExpr = ast.And("paren", nil, pLParen, ref(&pTerm), pRParen)

	pPrimary = ast.OrdChoice("primary", nil,
		pc.Atom("!", "!"),
		pc.Float(), pc.Int(),
		pVariable,
		pCompound,
		pQuotedAtom,
		pBareAtom,
		pList,
		pCharString,
		pParenExpr,
	)

	pUnaryDef = ast.OrdChoice("unary", nil,
		ast.And("unary_minus", nil, pc.Atom("-", "-"), ref(&pUnary)),
		pPrimary,
	)

	pPowDef = ast.And("pow", nil, pUnaryDef, ast.Maybe("pow_rhs", nil, ast.And("pow_term", nil, pPowOp, ref(&pPow))))

	pMulDef = ast.And("mul", nil, ref(&pPow), ast.Maybe("mul_rhs", nil, ast.And("mul_term", nil, pMulOp, ref(&pMul))))
	pAddDef = ast.And("add", nil, ref(&pMul), ast.Maybe("add_rhs", nil, ast.And("add_term", nil, pAddOp, ref(&pAdd))))

	// Comparisons are non-associative: at most one operator per level.
	pCompareDef = ast.And("compare", nil, ref(&pAdd), ast.Maybe("compare_rhs", nil, ast.And("compare_term", nil, pCompareOp, ref(&pAdd))))

	pAndDef = ast.And("conjunction", nil, ref(&pCompare), ast.Maybe("and_rhs", nil, ast.And("and_term", nil, pAndOp, ref(&pAnd))))
	pOrDef  = ast.And("disjunction", nil, ref(&pAnd), ast.Maybe("or_rhs", nil, ast.And("or_term", nil, pOrOp, ref(&pTerm))))
)

var (
	pHead = ast.OrdChoice("head", nil, pCompound, pQuotedAtom, pBareAtom)

	pFact  = ast.And("fact", nil, pHead, pClauseEnd)
	pRule  = ast.And("rule", nil, pHead, pArrow, ref(&pTerm), pClauseEnd)
	pQuery = ast.And("query", nil, pQMark, ref(&pTerm), pClauseEnd)

	pSentence = ast.OrdChoice("sentence", nil, pRule, pFact, pQuery)
	pProgram  = ast.ManyUntil("program", nil, ast.OrdChoice("item", nil, pComment, pSentence), pc.End())
)

func init() {
	pUnary = pUnaryDef
	pPow = pPowDef
	pMul = pMulDef
	pAdd = pAddDef
	pCompare = pCompareDef
	pArgTerm = pCompareDef
	pAnd = pAndDef
	pTerm = pOrDef
}
