package decoy

import "time"

// selfAuthor labels outgoing messages in every fabricated conversation.
const selfAuthor = "me"

type presetLine struct {
	direction Direction
	text      string
	offset    time.Duration
}

// presetEntry is one catalog conversation: a fabricated contact and the
// messages exchanged with them, offsets relative to the conversation start.
type presetEntry struct {
	contact string
	lines   []presetLine
}

// catalog holds every fabricated conversation, keyed by persona and preset.
// Content is deliberately mundane. Nothing here is derived from, templated
// on, or updated from genuine user data.
var catalog = map[Persona]map[Preset]presetEntry{
	PersonaJournal: {
		"daily": {
			contact: "Journal",
			lines: []presetLine{
				{DirectionOutgoing, "Slept badly, too much coffee yesterday. Switching to tea after lunch.", 0},
				{DirectionOutgoing, "Long standup, nothing new. Finished the report draft before noon though.", 26 * time.Hour},
				{DirectionOutgoing, "Walked home the long way past the canal. Should do that more often.", 34 * time.Hour},
				{DirectionOutgoing, "Mom called, they repainted the kitchen. Yellow, apparently.", 50 * time.Hour},
				{DirectionOutgoing, "Rained all day. Reread half of an old paperback and made soup.", 76 * time.Hour},
				{DirectionOutgoing, "Gym again finally. Knees complained but fine afterwards.", 99 * time.Hour},
				{DirectionOutgoing, "Need to remember: dentist on Thursday, 16:30.", 121 * time.Hour},
			},
		},
		"travel": {
			contact: "Journal",
			lines: []presetLine{
				{DirectionOutgoing, "Booked the train tickets. Window seat both ways this time.", 0},
				{DirectionOutgoing, "Packing list: charger, rain jacket, the good walking shoes.", 3 * time.Hour},
				{DirectionOutgoing, "Hotel breakfast ends at 9:30, set an alarm.", 20 * time.Hour},
				{DirectionOutgoing, "The old town is smaller than the photos suggest but the bridge is worth it.", 47 * time.Hour},
				{DirectionOutgoing, "Bought the little ceramic bowl after circling back twice. No regrets.", 52 * time.Hour},
				{DirectionOutgoing, "Train back delayed 20 minutes. Finished the podcast backlog.", 77 * time.Hour},
			},
		},
	},
	PersonaChat: {
		"groceries": {
			contact: "Sam",
			lines: []presetLine{
				{DirectionIncoming, "hey, are you passing the store on the way back?", 0},
				{DirectionOutgoing, "yeah can do. what do we need?", 4 * time.Minute},
				{DirectionIncoming, "milk, eggs, and that bread you got last week", 6 * time.Minute},
				{DirectionOutgoing, "the sourdough? they only have it thursdays I think", 9 * time.Minute},
				{DirectionIncoming, "whatever looks decent then. oh and dish soap", 11 * time.Minute},
				{DirectionOutgoing, "noted. anything for the weekend?", 12 * time.Minute},
				{DirectionIncoming, "if tomatoes look ok grab some, otherwise skip", 15 * time.Minute},
				{DirectionOutgoing, "on it, there in 20", 16 * time.Minute},
			},
		},
		"weekend": {
			contact: "Alex",
			lines: []presetLine{
				{DirectionIncoming, "still on for saturday?", 0},
				{DirectionOutgoing, "yep. weather says cloudy but dry", 22 * time.Minute},
				{DirectionIncoming, "good enough. 10 at the north entrance?", 31 * time.Minute},
				{DirectionOutgoing, "make it 10:30, I have to drop the car first", 40 * time.Minute},
				{DirectionIncoming, "fine. bringing the thermos, you do snacks", 42 * time.Minute},
				{DirectionOutgoing, "deal. the route with the viewpoint or the short one?", 55 * time.Minute},
				{DirectionIncoming, "viewpoint. we always regret the short one", 58 * time.Minute},
				{DirectionOutgoing, "true. see you saturday", 60 * time.Minute},
			},
		},
	},
	PersonaStudy: {
		"homework": {
			contact: "Jordan",
			lines: []presetLine{
				{DirectionIncoming, "did you get problem 4? I keep getting a negative", 0},
				{DirectionOutgoing, "check the sign when you substitute, I made the same mistake", 8 * time.Minute},
				{DirectionIncoming, "ugh. yes. that was it", 17 * time.Minute},
				{DirectionOutgoing, "the last one is worse, took me an hour", 19 * time.Minute},
				{DirectionIncoming, "is it the one with the series?", 21 * time.Minute},
				{DirectionOutgoing, "yeah. hint: it telescopes", 23 * time.Minute},
				{DirectionIncoming, "you're a lifesaver. library tomorrow?", 30 * time.Minute},
				{DirectionOutgoing, "after 2, I have a lecture first", 33 * time.Minute},
			},
		},
		"exam": {
			contact: "Jordan",
			lines: []presetLine{
				{DirectionOutgoing, "three weeks left. splitting the chapters?", 0},
				{DirectionIncoming, "I'll take 1-4 if you take 5-8, swap notes after", 12 * time.Minute},
				{DirectionOutgoing, "works. past papers on the weekend?", 14 * time.Minute},
				{DirectionIncoming, "saturday morning, before I lose the will", 20 * time.Minute},
				{DirectionOutgoing, "the 2019 paper is supposed to be the hard one", 25 * time.Minute},
				{DirectionIncoming, "then we start with that one", 26 * time.Minute},
			},
		},
	},
}
