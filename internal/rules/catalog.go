package rules

import (
	"regexp"
	"strings"

	"github.com/buemura/contractlens/pkg/types"
)

// Builtin rule IDs. The fix package keys replacements on these.
const (
	IDTxOrigin         = "SOL-TX-ORIGIN"
	IDPostfixIncrement = "GAS-POSTFIX-INCREMENT"
	IDGreaterThanZero  = "GAS-GT-ZERO"
	IDFloatingPragma   = "BP-FLOATING-PRAGMA"
	IDDeprecatedNow    = "BP-DEPRECATED-NOW"
	IDDeprecatedThrow  = "BP-DEPRECATED-THROW"
	IDReentrancy       = "SOL-REENTRANCY"
	IDUncheckedCall    = "SOL-UNCHECKED-CALL"
	IDUncheckedERC20   = "SOL-UNCHECKED-ERC20"
	IDSelfdestruct     = "SOL-SELFDESTRUCT"
	IDDelegatecall     = "SOL-DELEGATECALL"
	IDWeakRandomness   = "SOL-WEAK-RANDOMNESS"
	IDOutdatedCompiler = "SOL-OUTDATED-COMPILER"
	IDLengthInLoop     = "GAS-LENGTH-IN-LOOP"
	IDUnboundedLoop    = "GAS-UNBOUNDED-LOOP"
	IDLongRevertString = "GAS-LONG-REVERT-STRING"
	IDTransferSend     = "BP-TRANSFER-SEND"
)

var (
	reTxOrigin        = regexp.MustCompile(`\btx\.origin\b`)
	reAuthContext     = regexp.MustCompile(`==|!=|\brequire\s*\(|\bassert\s*\(|\bif\s*\(`)
	reValueCall       = regexp.MustCompile(`[A-Za-z_][\w\.\[\]]*(?:\([\w\.]*\))?\.call\s*(?:\{[^}]*\bvalue\s*:[^}]*\}|\.value\s*\([^)]*\))`)
	reStateWrite      = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z_]\w*(?:\[[^\]\n]*\])*(?:\.\w+)*\s*(?:=|\+=|-=|\*=|/=)[^=]`)
	reUncheckedCall   = regexp.MustCompile(`(?m)^[ \t]*(?P<m>[A-Za-z_][\w\.\[\]]*(?:\([\w\.]*\))?\.(?:call|send|delegatecall|staticcall)\s*(?:\{[^}]*\})?\s*\([^;]*\))\s*;`)
	reUncheckedERC20  = regexp.MustCompile(`(?m)^[ \t]*(?P<m>[A-Za-z_][\w\.\[\]]*(?:\([\w\.]*\))?\.(?:transfer|transferFrom|approve)\s*\([^;]*,[^;]*\))\s*;`)
	reSelfdestruct    = regexp.MustCompile(`\b(?P<m>selfdestruct|suicide)\s*\(`)
	reDelegatecall    = regexp.MustCompile(`\.(?P<m>delegatecall)\s*[({]`)
	reIdent           = regexp.MustCompile(`\b[A-Za-z_]\w*\b`)
	reBlockEntropy    = regexp.MustCompile(`\b(?P<m>block\.timestamp|block\.difficulty|block\.prevrandao|blockhash)\b`)
	reRandomContext   = regexp.MustCompile(`\b(?:keccak256|sha256|sha3)\s*\(|%|(?i:random)`)
	reOutdatedPragma  = regexp.MustCompile(`(?m)^[ \t]*pragma\s+solidity\s+[\^~>=< \t]*(?P<m>0\.[4-7]\.\d+)`)
	reFloatingPragma  = regexp.MustCompile(`(?m)^[ \t]*pragma\s+solidity\s+(?P<m>[\^~]\s*\d+\.\d+\.\d+)\s*;`)
	reLengthInLoop    = regexp.MustCompile(`\bfor\s*\([^;]*;[^;]*?\b(?P<m>[A-Za-z_]\w*(?:\.\w+)*\.length)\b`)
	rePostfixLoop     = regexp.MustCompile(`\bfor\s*\([^;]*;[^;]*;\s*(?P<m>[A-Za-z_]\w*\+\+)\s*\)`)
	reLongRevert      = regexp.MustCompile(`\b(?:require|revert)\s*\([^;]*?(?P<m>"[^"\n]{33,}")\s*\)`)
	reGreaterThanZero = regexp.MustCompile(`\brequire\s*\(\s*(?P<m>[A-Za-z_][\w\.\[\]]*\s*>\s*0)\b`)
	reForHeader       = regexp.MustCompile(`\bfor\s*\([^;]*;([^;]*);[^)]*\)`)
	reLiteralBound    = regexp.MustCompile(`<=?\s*\d+\b`)
	reNow             = regexp.MustCompile(`\b(?P<m>now)\b`)
	reTransferSend    = regexp.MustCompile(`\.(?P<m>transfer|send)\s*\(\s*(?:[^,()]|\([^()]*\))+\s*\)`)
	reThrow           = regexp.MustCompile(`\b(?P<m>throw)\s*;`)
)

// Catalog returns fresh instances of every builtin rule.
func Catalog() []*Rule {
	return []*Rule{
		{
			Meta: Meta{
				ID: IDTxOrigin, Kind: types.KindVulnerability, Severity: types.SeverityHigh,
				Title:      "tx.origin used for authorization",
				Message:    "Authorization based on tx.origin can be bypassed by a phishing contract that the owner is tricked into calling.",
				Suggestion: "Use msg.sender for authorization checks.",
				References: []string{"SWC-115"},
				AutoFix:    true,
			},
			Match: Heuristic(txOriginAuthorization),
		},
		{
			Meta: Meta{
				ID: IDReentrancy, Kind: types.KindVulnerability, Severity: types.SeverityCritical,
				Title:      "External call before state update",
				Message:    "Ether is sent with a low-level call before contract state is updated, allowing the callee to re-enter.",
				Suggestion: "Apply checks-effects-interactions: update state before the call, or add a reentrancy guard.",
				References: []string{"SWC-107"},
			},
			Match: Heuristic(reentrancy),
		},
		{
			Meta: Meta{
				ID: IDUncheckedCall, Kind: types.KindVulnerability, Severity: types.SeverityHigh,
				Title:      "Unchecked low-level call",
				Message:    "The return value of a low-level call is ignored; a failed call will not revert the transaction.",
				Suggestion: "Capture the success flag and require it, e.g. (bool ok, ) = to.call{value: v}(\"\"); require(ok);",
				References: []string{"SWC-104"},
			},
			Match: Pattern{Expr: reUncheckedCall, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDUncheckedERC20, Kind: types.KindVulnerability, Severity: types.SeverityMedium,
				Title:      "Unchecked ERC20 return value",
				Message:    "Some tokens return false instead of reverting; ignoring the result can silently lose funds.",
				Suggestion: "Use SafeERC20 (safeTransfer/safeTransferFrom) or require the returned bool.",
				References: []string{"SWC-104"},
			},
			Match: Pattern{Expr: reUncheckedERC20, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDSelfdestruct, Kind: types.KindVulnerability, Severity: types.SeverityHigh,
				Title:      "Use of selfdestruct",
				Message:    "selfdestruct can permanently disable the contract and force-send its balance.",
				Suggestion: "Remove selfdestruct or guard it behind strict, time-locked access control.",
				References: []string{"SWC-106"},
			},
			Match: Pattern{Expr: reSelfdestruct, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDDelegatecall, Kind: types.KindVulnerability, Severity: types.SeverityCritical,
				Title:      "Delegatecall to a caller-supplied target",
				Message:    "delegatecall runs code chosen by the caller against this contract's storage.",
				Suggestion: "Only delegatecall into trusted, immutable implementation addresses.",
				References: []string{"SWC-112"},
			},
			Match: Heuristic(callerSuppliedDelegatecall),
		},
		{
			Meta: Meta{
				ID: IDWeakRandomness, Kind: types.KindVulnerability, Severity: types.SeverityMedium,
				Title:      "Weak randomness from block attributes",
				Message:    "Block attributes are visible to and partly controlled by miners and validators.",
				Suggestion: "Use a verifiable randomness source such as a VRF oracle or commit-reveal.",
				References: []string{"SWC-120"},
			},
			Match: Pattern{Expr: reBlockEntropy, Group: "m", View: ViewCode, Accept: onLineMatching(reRandomContext)},
		},
		{
			Meta: Meta{
				ID: IDOutdatedCompiler, Kind: types.KindVulnerability, Severity: types.SeverityMedium,
				Title:      "Compiler version without checked arithmetic",
				Message:    "Solidity versions before 0.8.0 do not revert on integer overflow or underflow.",
				Suggestion: "Upgrade to Solidity 0.8.x or use SafeMath for all arithmetic.",
				References: []string{"SWC-101", "SWC-102"},
			},
			Match: Pattern{Expr: reOutdatedPragma, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDLengthInLoop, Kind: types.KindGasOptimization, Severity: types.SeverityLow,
				Title:      "Array length read on every loop iteration",
				Message:    "Reading .length in the loop condition repeats the load on each iteration.",
				Suggestion: "Cache the length in a local variable before the loop.",
			},
			Match: Pattern{Expr: reLengthInLoop, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDPostfixIncrement, Kind: types.KindGasOptimization, Severity: types.SeverityLow,
				Title:      "Postfix increment in loop",
				Message:    "i++ keeps a copy of the old value; ++i is cheaper.",
				Suggestion: "Use the prefix increment ++i.",
				AutoFix:    true,
			},
			Match: Pattern{Expr: rePostfixLoop, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDUnboundedLoop, Kind: types.KindGasOptimization, Severity: types.SeverityMedium,
				Title:      "Loop bound by unbounded array length",
				Message:    "A public or external function loops over an array whose length callers can grow, risking out-of-gas.",
				Suggestion: "Cap the iteration count or paginate the work across transactions.",
				References: []string{"SWC-128"},
			},
			Match: Heuristic(unboundedLoops),
		},
		{
			Meta: Meta{
				ID: IDLongRevertString, Kind: types.KindGasOptimization, Severity: types.SeverityLow,
				Title:      "Revert string longer than 32 bytes",
				Message:    "Revert reasons longer than 32 bytes cost extra deployment and runtime gas.",
				Suggestion: "Shorten the message or use custom errors.",
			},
			Match: Pattern{Expr: reLongRevert, Group: "m", View: ViewNoComments},
		},
		{
			Meta: Meta{
				ID: IDGreaterThanZero, Kind: types.KindGasOptimization, Severity: types.SeverityLow,
				Title:      "Comparison > 0 on unsigned value",
				Message:    "For unsigned integers != 0 is cheaper than > 0.",
				Suggestion: "Compare with != 0.",
				AutoFix:    true,
			},
			Match: Pattern{Expr: reGreaterThanZero, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDFloatingPragma, Kind: types.KindBestPractice, Severity: types.SeverityMedium,
				Title:      "Floating pragma",
				Message:    "A floating compiler version may compile with a version the contract was not tested with.",
				Suggestion: "Pin an exact compiler version.",
				References: []string{"SWC-103"},
				AutoFix:    true,
			},
			Match: Pattern{Expr: reFloatingPragma, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDDeprecatedNow, Kind: types.KindBestPractice, Severity: types.SeverityLow,
				Title:      "Deprecated alias now",
				Message:    "now was removed in Solidity 0.7.0.",
				Suggestion: "Use block.timestamp.",
				AutoFix:    true,
			},
			Match: Pattern{Expr: reNow, Group: "m", View: ViewCode, Accept: isBareNow},
		},
		{
			Meta: Meta{
				ID: IDTransferSend, Kind: types.KindBestPractice, Severity: types.SeverityMedium,
				Title:      "Ether sent with transfer or send",
				Message:    "transfer and send forward a fixed 2300 gas stipend that can break with gas repricing.",
				Suggestion: "Use call{value: amount}(\"\") and check the result, guarding against reentrancy.",
			},
			Match: Pattern{Expr: reTransferSend, Group: "m", View: ViewCode},
		},
		{
			Meta: Meta{
				ID: IDDeprecatedThrow, Kind: types.KindBestPractice, Severity: types.SeverityMedium,
				Title:      "Deprecated throw statement",
				Message:    "throw was removed in Solidity 0.5.0.",
				Suggestion: "Use revert(), require() or assert().",
				AutoFix:    true,
			},
			Match: Pattern{Expr: reThrow, Group: "m", View: ViewCode},
		},
	}
}

// lineAt returns the line of text that contains offset.
func lineAt(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		return text[start:]
	}
	return text[start : offset+end]
}

func onLineMatching(re *regexp.Regexp) func(s *Scan, m []int) bool {
	return func(s *Scan, m []int) bool {
		return re.MatchString(lineAt(s.View(ViewCode), m[0]))
	}
}

func isBareNow(s *Scan, m []int) bool {
	code := s.View(ViewCode)
	if m[0] > 0 && code[m[0]-1] == '.' {
		return false
	}
	rest := strings.TrimLeft(code[m[1]:], " \t")
	return !strings.HasPrefix(rest, "(")
}

func txOriginAuthorization(s *Scan) []Span {
	code := s.View(ViewCode)
	var spans []Span
	for _, m := range reTxOrigin.FindAllStringIndex(code, -1) {
		if reAuthContext.MatchString(lineAt(code, m[0])) {
			spans = append(spans, Span{Start: m[0], End: m[1]})
		}
	}
	return spans
}

func reentrancy(s *Scan) []Span {
	code := s.View(ViewCode)
	var spans []Span
	for _, fn := range s.Functions() {
		body := code[fn.Body.Start:fn.Body.End]
		for _, call := range reValueCall.FindAllStringIndex(body, -1) {
			after := body[call[1]:]
			// Skip the remainder of the statement holding the call.
			if semi := strings.IndexByte(after, ';'); semi >= 0 {
				after = after[semi+1:]
			}
			if reStateWrite.MatchString(after) {
				spans = append(spans, Span{Start: fn.Body.Start + call[0], End: fn.Body.Start + call[1]})
			}
		}
	}
	return spans
}

func unboundedLoops(s *Scan) []Span {
	code := s.View(ViewCode)
	var spans []Span
	for _, fn := range s.Functions() {
		if !fn.IsExternallyCallable(s) {
			continue
		}
		body := code[fn.Body.Start:fn.Body.End]
		for _, m := range reForHeader.FindAllStringSubmatchIndex(body, -1) {
			cond := body[m[2]:m[3]]
			if strings.Contains(cond, ".length") && !reLiteralBound.MatchString(cond) {
				spans = append(spans, Span{Start: fn.Body.Start + m[0], End: fn.Body.Start + m[1]})
			}
		}
	}
	return spans
}

// receiverBefore returns the expression that ends right before code[dot],
// e.g. "address(impl)" for "address(impl).delegatecall".
func receiverBefore(code string, dot int) string {
	depth := 0
	i := dot - 1
	for ; i >= 0; i-- {
		c := code[i]
		switch {
		case c == ')' || c == ']':
			depth++
		case c == '(' || c == '[':
			if depth == 0 {
				return code[i+1 : dot]
			}
			depth--
		case depth > 0:
		case c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		default:
			return code[i+1 : dot]
		}
	}
	return code[:dot]
}

// parameterNames lists the names declared in a function header's
// parameter list.
func parameterNames(header string) map[string]bool {
	names := map[string]bool{}
	open := strings.IndexByte(header, '(')
	end := strings.IndexByte(header, ')')
	if open < 0 || end < open {
		return names
	}
	for _, p := range strings.Split(header[open+1:end], ",") {
		fields := strings.Fields(p)
		if len(fields) >= 2 {
			names[fields[len(fields)-1]] = true
		}
	}
	return names
}

// callerControlled reports whether expr mentions msg.data or one of params.
func callerControlled(expr string, params map[string]bool) bool {
	if strings.Contains(expr, "msg.data") {
		return true
	}
	for _, id := range reIdent.FindAllString(expr, -1) {
		if params[id] {
			return true
		}
	}
	return false
}

// callerSuppliedDelegatecall flags delegatecalls whose target comes from a
// function parameter or msg.data, directly or through one local assignment.
// Targets held in state, such as an immutable implementation, are not
// flagged.
func callerSuppliedDelegatecall(s *Scan) []Span {
	code := s.View(ViewCode)
	var spans []Span
	for _, fn := range s.Functions() {
		params := parameterNames(code[fn.Header.Start:fn.Header.End])
		body := code[fn.Body.Start:fn.Body.End]
		for _, m := range reDelegatecall.FindAllStringSubmatchIndex(body, -1) {
			target := receiverBefore(body, m[0])
			tainted := callerControlled(target, params)
			if !tainted {
				for _, id := range reIdent.FindAllString(target, -1) {
					assign := regexp.MustCompile(`\b` + regexp.QuoteMeta(id) + `\s*=\s*([^=;][^;]*);`)
					for _, a := range assign.FindAllStringSubmatch(body[:m[0]], -1) {
						if callerControlled(a[1], params) {
							tainted = true
						}
					}
				}
			}
			if tainted {
				spans = append(spans, Span{Start: fn.Body.Start + m[2], End: fn.Body.Start + m[3]})
			}
		}
	}
	return spans
}
