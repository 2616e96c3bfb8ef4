package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PEP440 compares Python package versions: [N!]N(.N)*[{a|b|rc}N][.postN][.devN]
// Ordering within one release is dev < pre (a < b < rc) < final < post.
type PEP440 struct{}

var pep440Re = regexp.MustCompile(`^(?:(\d+)!)?(\d+(?:\.\d+)*)(?:(a|b|rc)(\d+))?(?:\.post(\d+))?(?:\.dev(\d+))?$`)

type pep440Version struct {
	epoch   int
	release []int
	// phase: 0 dev-only, 1 pre-release, 2 final, 3 post-release
	phase   int
	preKind int // a=0, b=1, rc=2
	preNum  int
	postNum int
	devNum  int
	hasDev  bool
}

func parsePEP440(s string) (*pep440Version, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "v")
	m := pep440Re.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid PEP 440 version %q", s)
	}

	v := &pep440Version{phase: 2}
	if m[1] != "" {
		v.epoch, _ = strconv.Atoi(m[1])
	}
	for _, part := range strings.Split(m[2], ".") {
		n, _ := strconv.Atoi(part)
		v.release = append(v.release, n)
	}
	if m[3] != "" {
		v.phase = 1
		switch m[3] {
		case "a":
			v.preKind = 0
		case "b":
			v.preKind = 1
		case "rc":
			v.preKind = 2
		}
		v.preNum, _ = strconv.Atoi(m[4])
	}
	if m[5] != "" {
		v.phase = 3
		v.postNum, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		v.hasDev = true
		v.devNum, _ = strconv.Atoi(m[6])
		if v.phase == 2 {
			v.phase = 0
		}
	}
	return v, nil
}

func (PEP440) Compare(a, b string) (int, error) {
	va, err := parsePEP440(a)
	if err != nil {
		return 0, err
	}
	vb, err := parsePEP440(b)
	if err != nil {
		return 0, err
	}

	if va.epoch != vb.epoch {
		return cmpInt(va.epoch, vb.epoch), nil
	}

	// Release segments compare numerically, shorter ones padded with zeros.
	n := len(va.release)
	if len(vb.release) > n {
		n = len(vb.release)
	}
	for i := 0; i < n; i++ {
		ra, rb := 0, 0
		if i < len(va.release) {
			ra = va.release[i]
		}
		if i < len(vb.release) {
			rb = vb.release[i]
		}
		if ra != rb {
			return cmpInt(ra, rb), nil
		}
	}

	if va.phase != vb.phase {
		return cmpInt(va.phase, vb.phase), nil
	}
	if va.phase == 1 {
		if va.preKind != vb.preKind {
			return cmpInt(va.preKind, vb.preKind), nil
		}
		if va.preNum != vb.preNum {
			return cmpInt(va.preNum, vb.preNum), nil
		}
	}
	if va.phase == 3 && va.postNum != vb.postNum {
		return cmpInt(va.postNum, vb.postNum), nil
	}

	// A .dev release sorts before the otherwise-equal version.
	switch {
	case va.hasDev && !vb.hasDev:
		return -1, nil
	case !va.hasDev && vb.hasDev:
		return 1, nil
	case va.hasDev && vb.hasDev:
		return cmpInt(va.devNum, vb.devNum), nil
	}
	return 0, nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
