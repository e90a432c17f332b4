package mediawiki

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"wikisync/pkg/logging"
)

const categoryPrefix = "Category:"

// CategoryTitle returns name as a category page title, adding the
// canonical Category: namespace unless name already starts with it in any
// letter case. Colons inside the name itself are kept as they are.
func CategoryTitle(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= len(categoryPrefix) && strings.EqualFold(name[:len(categoryPrefix)], categoryPrefix) {
		return name
	}
	return categoryPrefix + name
}

// CategoryMembers returns the titles of every member of category, in the
// order the wiki lists them.
func (c *Client) CategoryMembers(ctx context.Context, category string) ([]string, error) {
	title := CategoryTitle(category)

	params := url.Values{}
	params.Set("list", "categorymembers")
	params.Set("cmtitle", title)
	params.Set("cmprop", "title")
	params.Set("cmlimit", "max")

	res, err := c.QueryAll(ctx, "categorymembers", params)
	if err != nil {
		return nil, fmt.Errorf("fetching members of %s from %s: %w", title, c.name, err)
	}

	var members []struct {
		Title string `json:"title"`
	}
	if err := res.List("categorymembers", &members); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(members))
	for _, m := range members {
		titles = append(titles, m.Title)
	}

	logging.Info("MediaWiki", "%s has %d member(s) on %s", title, len(titles), c.name)
	return titles, nil
}
