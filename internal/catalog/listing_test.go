package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseListing(t *testing.T) {
	t.Parallel()

	listing, err := NewListingParser().ParseListing([]byte(listingPage))
	require.NoError(t, err)
	require.Equal(t, []string{"a-light-in-the-attic_1000/index.html", "../../media/x.html"}, listing.DetailLinks)
	require.Equal(t, "page-2.html", listing.NextLink)
}

func TestParseListingLastPageHasNoNext(t *testing.T) {
	t.Parallel()

	listing, err := NewListingParser().ParseListing([]byte(lastListingPage))
	require.NoError(t, err)
	require.Equal(t, []string{"last-book_1/index.html"}, listing.DetailLinks)
	require.Empty(t, listing.NextLink)
}

func TestParseListingGarbage(t *testing.T) {
	t.Parallel()

	listing, err := NewListingParser().ParseListing([]byte("<<<not html"))
	require.NoError(t, err)
	require.Empty(t, listing.DetailLinks)
	require.Empty(t, listing.NextLink)
}
