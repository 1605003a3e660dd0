/*
helpers.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

func netJoinHostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}

// urlDecode percent-decodes a single ESL header value. FreeSWITCH
// urlencodes header values on the wire; on error the original value is
// returned unchanged rather than surfacing a parse failure, since decode
// happens lazily on every access (spec.md section 3 invariants).
func urlDecode(hdrVal string) string {
	if unescaped, err := url.QueryUnescape(hdrVal); err == nil {
		return unescaped
	}
	return hdrVal
}

func indexStringAll(origStr, srchd string) []int {
	foundIdxs := make([]int, 0)
	lenSearched := len(srchd)
	startIdx := 0
	for {
		idxFound := strings.Index(origStr[startIdx:], srchd)
		if idxFound == -1 {
			break
		}
		idxFound += startIdx
		foundIdxs = append(foundIdxs, idxFound)
		startIdx = idxFound + lenSearched
	}
	return foundIdxs
}

var groupPattern = regexp.MustCompile(`\{.*\}|\[.*\]`)

// splitIgnoreGroups splits origStr on sep, treating commas inside {} or []
// as non-separators (FreeSWITCH channel-variable groups), then merges
// consecutive group fragments back together the way FreeSWITCH renders
// dialstring application data.
func splitIgnoreGroups(origStr, sep string) []string {
	if len(origStr) == 0 {
		return []string{}
	} else if len(sep) == 0 {
		return []string{origStr}
	}
	cmIdxs := indexStringAll(origStr, sep)
	if len(cmIdxs) == 0 {
		return []string{origStr}
	}
	oCrlyIdxs := indexStringAll(origStr, "{")
	cCrlyIdxs := indexStringAll(origStr, "}")
	oBrktIdxs := indexStringAll(origStr, "[")
	cBrktIdxs := indexStringAll(origStr, "]")
	retSplit := make([]string, 0)
	lastNonexcludedIdx := 0
	for i, cmdIdx := range cmIdxs {
		if len(oCrlyIdxs) == len(cCrlyIdxs) && len(oBrktIdxs) == len(cBrktIdxs) {
			exceptFound := false
			for iCrlyIdx := range oCrlyIdxs {
				if oCrlyIdxs[iCrlyIdx] < cmdIdx && cCrlyIdxs[iCrlyIdx] > cmdIdx {
					exceptFound = true
					break
				}
			}
			for oBrktIdx := range oBrktIdxs {
				if oBrktIdxs[oBrktIdx] < cmdIdx && cBrktIdxs[oBrktIdx] > cmdIdx {
					exceptFound = true
					break
				}
			}
			if exceptFound {
				continue
			}
		}
		switch i {
		case 0:
			retSplit = append(retSplit, origStr[:cmIdxs[i]])
		case len(cmIdxs) - 1:
			postpendStr := ""
			if len(origStr) > cmIdxs[i]+1 {
				postpendStr = origStr[cmIdxs[i]+1:]
			}
			retSplit = append(retSplit, origStr[cmIdxs[lastNonexcludedIdx]+1:cmIdxs[i]], postpendStr)
		default:
			retSplit = append(retSplit, origStr[cmIdxs[lastNonexcludedIdx]+1:cmIdxs[i]])
		}
		lastNonexcludedIdx = i
	}
	groupedSplt := make([]string, 0)
	for idx, spltData := range retSplit {
		if idx == 0 {
			groupedSplt = append(groupedSplt, spltData)
			continue
		}
		if !groupPattern.MatchString(spltData) || !groupPattern.MatchString(retSplit[idx-1]) {
			groupedSplt = append(groupedSplt, spltData)
			continue
		}
		groupedSplt[len(groupedSplt)-1] = groupedSplt[len(groupedSplt)-1] + sep + spltData
	}
	return groupedSplt
}

// MapChanData converts the CSV-ish output of the "show channels" API into
// one map per channel row, keyed by the header row's column names.
func MapChanData(chanInfoStr string) []map[string]string {
	chansInfoMap := make([]map[string]string, 0)
	spltChanInfo := strings.Split(chanInfoStr, "\n")
	if len(spltChanInfo) <= 4 {
		return chansInfoMap
	}
	hdrs := strings.Split(spltChanInfo[0], ",")
	for _, chanInfoLn := range spltChanInfo[1 : len(spltChanInfo)-3] {
		chanInfo := splitIgnoreGroups(chanInfoLn, ",")
		if len(hdrs) != len(chanInfo) {
			continue
		}
		chnMp := make(map[string]string, len(hdrs))
		for iHdr, hdr := range hdrs {
			chnMp[hdr] = chanInfo[iHdr]
		}
		chansInfoMap = append(chansInfoMap, chnMp)
	}
	return chansInfoMap
}
