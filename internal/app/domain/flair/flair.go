package flair

import (
	"fmt"
	"strings"
)

// ModmailLink is the compose link for messaging the moderators of subreddit.
func ModmailLink(subreddit string) string {
	return "https://www.reddit.com/message/compose/?to=/r/" + subreddit
}

// Comment is the sticky reply left on a submission removed for missing flair.
func Comment(author, subreddit, permalink string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi /u/%s,\n\n", author)
	fmt.Fprintf(&b, "Your [submission](%s) has been removed because it has no flair. ", permalink)
	b.WriteString("Please choose a flair using the **flair** button under your post and it will be ")
	b.WriteString("restored automatically. You do not need to post it again.\n\n")
	b.WriteString("Posts left without a flair stay removed.\n\n---\n\n")
	fmt.Fprintf(&b, "*I am a bot, and this action was performed automatically. Please [contact the moderators of this subreddit](%s) if you have any questions or concerns.*", ModmailLink(subreddit))

	return b.String()
}
