package util

import "strings"

func RemoveDuplicateStrings(strings []string, ignoreList []string) []string {
	presentStrings := make(map[string]bool)
	var list []string

	for _, ignoreString := range ignoreList {
		presentStrings[ignoreString] = true
	}

	for _, item := range strings {
		if _, value := presentStrings[item]; !value && item != "" {
			presentStrings[item] = true
			list = append(list, item)
		}
	}
	return list
}

// SplitList splits a separated list (eg. "12, 15 ,851e") into trimmed, de-duplicated items
func SplitList(s string, separator string) []string {
	var items []string
	for _, item := range strings.Split(s, separator) {
		items = append(items, strings.TrimSpace(item))
	}

	return RemoveDuplicateStrings(items, nil)
}
