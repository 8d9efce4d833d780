package handlers

const (
	helpWhen = "Sorry, I didn't understand. When should I set the reminder for?" +
		" You can say something like \"tomorrow at 10am\" or \"in 30 minutes\"."
	helpTZ = "Sorry, I couldn't understand your timezone. It can be something like \"US/Pacific\"" +
		" or \"GMT\". If you're stuck, I can use any of the zones in this list:" +
		" https://en.wikipedia.org/wiki/List_of_tz_database_time_zones." +
		" Be sure to get the capitalization right!"
	unknown    = "Sorry, I didn't understand that message."
	promptHelp = "Hey there, I didn't understand that." +
		" Just say \"help\" to see what sort of things I understand."
	assumeTZ = "I'm assuming your timezone is US/Eastern." +
		" If it's not, just tell me something like \"my timezone is US/Pacific\"."
	when        = "When do you want to be reminded?"
	ack         = "Got it!"
	ackWhen     = ack + " " + when
	ok          = "ok!"
	noReminders = "You don't have any upcoming reminders."
	listIntro   = "Here are your upcoming reminders:\n\n"
	source      = "I'm a reminder bot written in Go and run by @%s."
	help        = `*help* _shows this message._
*remind me [when] to [what]* or *remind me to [what] [when]* _set a reminder._
*list* _show upcoming reminders._
*delete the reminder to [what]* / *delete the [when] reminder* / *delete reminder #2* / etc _delete a reminder._
*set my timezone to [tz]* _sets your timezone. This changes when any upcoming reminders will happen._
*snooze [for 20 minutes]* _right after a reminder, brings it back later._
*#debug* _turns on debug mode: reports verbose errors including your message text._
*#nodebug* _turns off debug mode._

In general, if I didn't understand, I'll ask for clarification.
If you have any feedback or suggestions, @%s would love to hear them.`
	debugOn  = "Thanks! Now I'll log verbose error messages in this conversation. say #nodebug to turn it off."
	debugOff = "Ok! Debug mode is off now."
	crashed  = "Ugh! I crashed! I sent the error to @%s to fix."
)

const nothingToUndo = "There's nothing to undo."
