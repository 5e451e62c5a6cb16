package slackrtm

import (
	"github.com/nlopes/slack"

	"github.com/whisper/replybot/internal/platform"
)

// session is the snapshot taken from an RTM connected event.
type session struct {
	identity platform.Identity
	channels []string          // channels the bot is a member of
	groups   []string          // open, unarchived private groups
	dms      []string          // open direct messages, by peer name
	names    map[string]string // conversation id -> display name
}

func sessionFromInfo(info *slack.Info) session {
	s := session{names: make(map[string]string)}

	if info.User != nil {
		s.identity.SelfID = info.User.ID
		s.identity.SelfName = info.User.Name
	}
	if info.Team != nil {
		s.identity.TeamName = info.Team.Name
	}

	users := make(map[string]string, len(info.Users))
	for _, u := range info.Users {
		users[u.ID] = u.Name
	}

	for _, ch := range info.Channels {
		s.names[ch.ID] = ch.Name
		if ch.IsMember {
			s.channels = append(s.channels, ch.Name)
		}
	}
	for _, g := range info.Groups {
		s.names[g.ID] = g.Name
		if g.IsOpen && !g.IsArchived {
			s.groups = append(s.groups, g.Name)
		}
	}
	for _, im := range info.IMs {
		name := users[im.User]
		if name == "" {
			name = im.User
		}
		s.names[im.ID] = name
		if im.IsOpen {
			s.dms = append(s.dms, name)
		}
	}

	return s
}

func (s session) membership() platform.Membership {
	return platform.Membership{
		Channels: append([]string(nil), s.channels...),
		Groups:   append([]string(nil), s.groups...),
		DMs:      append([]string(nil), s.dms...),
	}
}
