package verifier

import "strings"

var disposableDomains = loadDisposableDomains()

// isDisposableDomain reports whether the domain belongs to a known
// throwaway-mail provider. Lookup is case-insensitive exact match.
func isDisposableDomain(domain string) bool {
	return disposableDomains[strings.ToLower(domain)]
}

func loadDisposableDomains() map[string]bool {
	domains := make(map[string]bool)
	for _, d := range strings.Split(disposableDomainList, "\n") {
		d = strings.TrimSpace(d)
		if d != "" {
			domains[d] = true
		}
	}
	return domains
}

const disposableDomainList = `
mailinator.com
mailinator.net
mailinator.org
mailinator2.com
tempmail.org
temp-mail.org
temp-mail.io
tempmail2.com
tempmailer.com
tempmailer.de
tempmaildemo.com
tempmailaddress.com
10minutemail.com
10minutemail.co.za
20minutemail.com
30minutemail.com
60minutemail.com
guerrillamail.com
guerrillamail.biz
guerrillamail.de
guerrillamail.info
guerrillamail.net
guerrillamail.org
guerrillamailblock.com
guerillamail.com
guerillamail.net
guerillamail.org
trashmail.com
trashmail.at
trashmail.de
trashmail.me
trashmail.net
trashmail.org
trashmail.ws
trash-mail.at
trash-mail.com
trash-mail.de
trashymail.com
trashymail.net
trashdevil.com
trashdevil.de
yopmail.com
yopmail.fr
yopmail.net
maildrop.cc
dispostable.com
fakeinbox.com
fake-mail.com
throwawaymail.com
throwawayemailaddress.com
mailnesia.com
getairmail.com
mytemp.email
mail-temp.com
tempail.com
tempomail.fr
tempinbox.com
tempinbox.co.uk
tempemail.net
tempemail.biz
tempe-mail.com
temporaryinbox.com
temporaryemail.net
temporaryforwarding.com
temporarioemail.com.br
mailmetrash.com
discard.email
discardmail.com
discardmail.de
mailcatch.com
mintemail.com
notmailinator.com
spamgourmet.com
spamhole.com
spam.la
spam.su
spam4.me
spamspot.com
spambox.us
spambog.com
spambog.de
spambog.ru
spamfree24.org
spamfree24.com
spamfree24.de
spamfree24.eu
spamfree.eu
spamdecoy.net
spamday.com
spamherelots.com
spamhereplease.com
spamthis.co.uk
spamthisplease.com
spamavert.com
spamcannon.com
spamcannon.net
spamcorptastic.com
spamex.com
spamify.com
spaml.com
spaml.de
spammotel.com
spamobox.com
spamslicer.com
spamstack.net
spamtrail.com
suremail.info
temporarily.de
thankyou2010.com
mytrashmail.com
mt2009.com
mt2014.com
mailexpire.com
maileater.com
mailforspam.com
mailin8r.com
mailinater.com
mailincubator.com
mailme.ir
mailme.lv
mailmoat.com
mailnull.com
mailquack.com
mailsac.com
mailscrap.com
mailshell.com
mailsiphon.com
mailslite.com
mailtemp.info
mailtome.de
mailtrash.net
mailzilla.com
mailzilla.org
mailbidon.com
mailblocks.com
mailbucket.org
maildu.de
maildx.com
jetable.com
jetable.fr.nf
jetable.net
jetable.org
kasmail.com
killmail.com
killmail.net
kurzepost.de
meltmail.com
mytempemail.com
mytempmail.com
myphantomemail.com
neverbox.com
no-spam.ws
nobulk.com
noclickemail.com
nospam4.us
nospamfor.us
nospammail.net
nowmymail.com
objectmail.com
odaymail.com
oneoffemail.com
onewaymail.com
oopi.org
pookmail.com
proxymail.eu
punkass.com
quickinbox.com
rcpt.at
rejectmail.com
rtrtr.com
safetymail.info
sharklasers.com
shieldedmail.com
shitmail.me
shortmail.net
sneakemail.com
snkmail.com
sofort-mail.de
sogetthis.com
selfdestructingmail.com
sendspamhere.com
harakirimail.com
hidemail.de
hmamail.com
imails.info
inboxclean.com
inboxclean.org
incognitomail.com
incognitomail.net
incognitomail.org
ieatspam.eu
ieatspam.info
anonbox.net
anonmails.de
anonymbox.com
antispam.de
antispam24.de
antispammail.de
binkmail.com
bobmail.info
bofthew.com
bouncr.com
brefmail.com
bspamfree.org
bugmenot.com
bumpymail.com
centermail.com
centermail.net
chogmail.com
courrieltemporaire.com
cust.in
dacoolest.com
deadaddress.com
deadspam.com
despam.it
despammed.com
devnullmail.com
dodgeit.com
dodgit.com
dodgit.org
donemail.ru
dontreg.com
dontsendmespam.de
dump-email.info
dumpandjunk.com
dumpmail.de
dumpyemail.com
e4ward.com
emailigo.de
emailinfive.com
emailmiser.com
emailsensei.com
emailtemporario.com.br
emailwarden.com
ephemail.net
explodemail.com
fakeinformation.com
fightallspam.com
filzmail.com
frapmail.com
fudgerub.com
garliclife.com
get1mail.com
get2mail.fr
getonemail.com
gishpuppy.com
gotmail.net
gotmail.org
goemailgo.com
h8s.org
haltospam.com
klassmaster.com
klassmaster.net
klzlk.com
letthemeatspam.com
litedrop.com
lookugly.com
lr78.com
maboard.com
mail-temporaire.fr
mail4trash.com
mailbiz.biz
mailcat.biz
mega.zik.dj
meinspamschutz.de
mierdamail.com
moburl.com
moncourrier.fr.nf
monemail.fr.nf
monmail.fr.nf
mycleaninbox.net
nepwk.com
nervmich.net
nervtmich.net
netmails.com
netmails.net
netzidiot.de
nice-4u.com
nincsmail.com
nnh.com
nogmailspam.info
nomail.xl.cx
nomail2me.com
nomorespamemails.com
nospam.ze.tc
nurfuerspam.de
nwldx.com
obobbo.com
ordinaryamerican.net
otherinbox.com
ourklips.com
outlawspam.com
owlpic.com
pancakemail.com
pepbot.com
pfui.ru
pimpedupmyspace.com
pjjkp.com
plexolan.de
poofy.org
privacy.net
prtnx.com
putthisinyourspamdatabase.com
recode.me
recursor.net
regbypass.com
rmqkr.net
s0ny.net
safe-mail.net
safersignup.de
sandelf.de
saynotospams.com
schafmail.de
schrott-email.de
secretemail.de
secure-mail.biz
sibmail.com
sinnlos-mail.de
skeefmail.com
slaskpost.se
smellfear.com
snakemail.com
sofimail.com
soodonims.com
speed.1s.fr
spikio.com
spoofmail.de
stuffmail.de
supergreatmail.com
supermailer.jp
teewars.org
teleworm.com
teleworm.us
tempalias.com
thanksnospam.info
thismail.net
tilien.com
tmailinator.com
tradermail.info
trash2009.com
trashemail.de
trillianpro.com
twinmail.de
tyldd.com
uggsrock.com
upliftnow.com
uplipht.com
venompen.com
veryrealemail.com
vubby.com
wasteland.rfc822.org
webemail.me
weg-werf-email.de
wegwerf-emails.de
wegwerfadresse.de
wegwerfemail.com
wegwerfemail.de
wegwerfmail.de
wegwerfmail.info
wegwerfmail.net
wegwerfmail.org
wh4f.org
whyspam.me
willselfdestruct.com
winemaven.info
wronghead.com
wuzup.net
wuzupmail.net
xagloo.com
xemaps.com
xents.com
xmaily.com
xoxy.net
yep.it
yogamaven.com
youmailr.com
yuurok.com
zehnminutenmail.de
zippymail.info
zoemail.net
zoemail.org
0-mail.com
0815.ru
0clickemail.com
0wnd.net
0wnd.org
123-m.com
1pad.de
2prong.com
33mail.com
4warding.com
4warding.net
4warding.org
6ip.us
6paq.com
6url.com
7tags.com
9ox.net
a-bc.net
agedmail.com
ajaxapp.net
amilegit.com
anonymail.dk
beefmilk.com
bigstring.com
bio-muesli.net
bootybay.de
boun.cr
breakthru.com
broadbandninja.com
bsnow.net
casualdx.com
cool.fr.nf
courriel.fr.nf
cubiclink.com
curryworld.de
dandikmail.com
dayrep.com
delikkt.de
dfgh.net
digitalsanctuary.com
disposableaddress.com
disposableemailaddresses.com
disposableinbox.com
dispose.it
emeil.in
emeil.ir
emz.net
enterto.com
etranquil.com
etranquil.net
etranquil.org
fansworldwide.de
fantasymail.de
fivemail.de
fleckens.hu
friendlymail.co.uk
fyii.de
giantmail.de
great-host.in
greensloth.com
gsrv.co.uk
gustr.com
hat-geld.de
herp.in
hidzz.com
hochsitze.com
hotpop.com
hulapla.de
ihateyoualot.info
iheartspam.org
insorg-mail.info
ipoo.org
irish2me.com
junk1e.com
kaspop.com
kulturbetrieb.info
lhsdv.com
lifebyfood.com
link2mail.net
lol.ovpn.to
lopl.co.cc
m4ilweb.info
mail1a.de
mail21.cc
mail2rss.org
mail333.com
mailde.de
mailde.info
mailfa.tk
mailfreeonline.com
mailguard.me
mailimate.com
mailismagic.com
mailms.com
mailnator.com
mailorg.org
mailpick.biz
mailproxsy.com
mailrock.biz
mailseal.de
mailslapping.com
mailtv.net
mailtv.tv
mbx.cc
meinspamschutz.de
messagebeamer.de
mezimages.net
msa.minsmail.com
mx0.wwwnew.eu
mypartyclip.de
mysamp.de
neomailbox.com
nowhere.org
olypmall.ru
online.ms
ovpn.to
pcusers.otherinbox.com
politikerclub.de
qq.com.disposable.invalid
rhyta.com
royal.net
shiftmail.com
shitware.nl
shmeriously.com
slapsfromlastnight.com
smashmail.de
sogetthis.com
spambob.com
spambob.net
spambob.org
spambooger.com
spambox.info
spamcero.com
spamcon.org
spamcowboy.com
spamcowboy.net
spamcowboy.org
spaminator.de
spamkill.info
spamoff.de
spamsalad.in
vipmail.name
vipmail.pw
vsimcard.com
wwwnew.eu
zoemail.org
`
